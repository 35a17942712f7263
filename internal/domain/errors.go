package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductNotFound    = errors.New("product not found")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrQuantityLimit      = errors.New("quantity exceeds maximum limit")
	ErrUnknownProductType = errors.New("unknown product type")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCouponSuperseded   = errors.New("coupon validation superseded by a newer request")
	ErrUnknownHomeTab     = errors.New("unknown home tab")
)

// InvalidProductError is returned when a catalog record fails validation.
type InvalidProductError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

// Is allows errors.Is(err, &InvalidProductError{}) style checks.
func (e *InvalidProductError) Is(target error) bool {
	_, ok := target.(*InvalidProductError)
	return ok
}

func NewInvalidProductError(field, reason string, value interface{}) error {
	return &InvalidProductError{Field: field, Reason: reason, Value: value}
}

// IsInvalidProductError checks if an error is an InvalidProductError
func IsInvalidProductError(err error) bool {
	var ipe *InvalidProductError
	return errors.As(err, &ipe)
}
