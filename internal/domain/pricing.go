package domain

// EffectiveUnitPrice applies the product's own discount, if any.
func (p Product) EffectiveUnitPrice() float64 {
	if p.Discount {
		return p.Price * (1 - float64(p.DiscountPercent)/100)
	}
	return p.Price
}

// Total is the effective unit price times quantity.
func (i LineItem) Total() float64 {
	return i.Product.EffectiveUnitPrice() * float64(i.Quantity)
}

// CalculateTotals applies product discounts first and the cart-level
// percentage on the resulting subtotal.
func CalculateTotals(items []LineItem, discountPercent int) Totals {
	var subTotal float64
	for _, item := range items {
		subTotal += item.Total()
	}

	discountValue := subTotal * (float64(discountPercent) / 100)
	return Totals{
		SubTotal:        subTotal,
		DiscountPercent: discountPercent,
		DiscountValue:   discountValue,
		Total:           subTotal - discountValue,
	}
}

// ItemCount sums quantities across lines.
func ItemCount(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
