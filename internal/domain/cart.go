package domain

import "context"

// --- Cart Entities ---

// LineItem is persisted as {product, quantity}. Product is held by value so a
// later catalog change does not reprice a committed line.
type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// DiscountState is session scoped. DiscountPercent > 0 implies CouponCode was
// validated.
type DiscountState struct {
	DiscountPercent int    `json:"discountPercent"`
	CouponCode      string `json:"couponCode"`
}

// Totals are derived on demand and never stored.
type Totals struct {
	SubTotal        float64 `json:"subTotal"`
	DiscountPercent int     `json:"discountPercent"`
	DiscountValue   float64 `json:"discountValue"`
	Total           float64 `json:"total"`
}

// CartSnapshot is an immutable view of the cart handed to listeners.
type CartSnapshot struct {
	Items     []LineItem    `json:"items"`
	Discount  DiscountState `json:"discount"`
	Totals    Totals        `json:"totals"`
	ItemCount int           `json:"itemCount"`
}

// CheckoutOrder is the composed hand-off to the messaging service.
type CheckoutOrder struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// --- Interfaces ---

// KeyValueStore is the persisted storage shared by every page of a site,
// modelled on browser local storage.
type KeyValueStore interface {
	// GetItem returns ok=false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// CartListener is notified after every cart or discount change.
type CartListener interface {
	CartChanged(snapshot CartSnapshot)
}

// CartListenerFunc adapts a function to CartListener.
type CartListenerFunc func(CartSnapshot)

func (f CartListenerFunc) CartChanged(s CartSnapshot) { f(s) }
