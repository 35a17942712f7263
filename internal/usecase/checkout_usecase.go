package usecase

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/pkg/utils"
)

// CheckoutUsecase composes the order message and the messaging hand-off URL.
type CheckoutUsecase struct {
	baseURL     string
	destination string
}

func NewCheckoutUsecase(cfg *config.Config) *CheckoutUsecase {
	return &CheckoutUsecase{
		baseURL:     strings.TrimRight(cfg.CheckoutBaseURL, "/"),
		destination: cfg.CheckoutDestination,
	}
}

// BuildMessage renders the order summary. The coupon block is written only
// when a discount is active.
func (uc *CheckoutUsecase) BuildMessage(items []domain.LineItem, totals domain.Totals, couponCode string) string {
	var b strings.Builder
	b.WriteString(domain.CheckoutGreeting)
	b.WriteString("\n\n")

	for _, item := range items {
		b.WriteString(strconv.Itoa(item.Quantity))
		b.WriteString("x ")
		b.WriteString(item.Product.Name)
		b.WriteString(" - ")
		b.WriteString(utils.BRL(item.Total()))
		b.WriteString("\n")
	}

	if totals.DiscountPercent > 0 {
		fmt.Fprintf(&b, "\nSubtotal: %s", utils.BRL(totals.SubTotal))
		fmt.Fprintf(&b, "\nCupom: %s", couponCode)
		fmt.Fprintf(&b, "\nDesconto: -%s", utils.BRL(totals.DiscountValue))
		fmt.Fprintf(&b, "\n*Total Final: %s*", utils.BRL(totals.Total))
	} else {
		fmt.Fprintf(&b, "\nTotal do Pedido: %s", utils.BRL(totals.Total))
	}
	return b.String()
}

// CheckoutURL builds {base}/{destination}?text={message}. Spaces encode as
// %20 so the result matches what browsers produce for the same text.
func (uc *CheckoutUsecase) CheckoutURL(message string) (string, error) {
	if message == "" {
		return "", errors.New("checkout message is empty")
	}
	if uc.destination == "" {
		return "", errors.New("checkout destination not configured")
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("%s/%s?text=%s", uc.baseURL, url.PathEscape(uc.destination), text), nil
}

// Checkout prices the cart and composes the order. An empty cart yields
// domain.ErrEmptyCart before anything is built.
func (uc *CheckoutUsecase) Checkout(items []domain.LineItem, discount domain.DiscountState) (domain.CheckoutOrder, error) {
	if len(items) == 0 {
		return domain.CheckoutOrder{}, domain.ErrEmptyCart
	}
	totals := domain.CalculateTotals(items, discount.DiscountPercent)
	msg := uc.BuildMessage(items, totals, discount.CouponCode)
	link, err := uc.CheckoutURL(msg)
	if err != nil {
		return domain.CheckoutOrder{}, err
	}
	return domain.CheckoutOrder{Message: msg, URL: link}, nil
}
