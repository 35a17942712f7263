package domain

// Coupon messages as shown next to the coupon input.
const (
	CouponMessageApplied = "Cupom aplicado!"
	CouponMessageInvalid = "Cupom inválido."
)

// CouponResult is the outcome of a coupon lookup. DiscountPercent is 0 when
// Valid is false.
type CouponResult struct {
	Code            string `json:"code"`
	Valid           bool   `json:"valid"`
	DiscountPercent int    `json:"discountPercent"`
	Message         string `json:"message"`
}

// CouponOutcome carries a CouponResult or the error that prevented it.
type CouponOutcome struct {
	Result CouponResult
	Err    error
}
