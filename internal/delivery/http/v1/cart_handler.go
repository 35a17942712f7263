package v1

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/delivery/http/middleware"
	"storefront/internal/domain"
	"storefront/internal/usecase"
	"storefront/pkg/utils"
)

type CartHandler struct {
	sessions  *usecase.SessionUsecase
	catalogUC *usecase.CatalogUsecase
}

func NewCartHandler(sessions *usecase.SessionUsecase, catalogUC *usecase.CatalogUsecase) *CartHandler {
	return &CartHandler{
		sessions:  sessions,
		catalogUC: catalogUC,
	}
}

type formattedTotals struct {
	SubTotal      string `json:"subTotal"`
	DiscountValue string `json:"discountValue"`
	Total         string `json:"total"`
}

type cartResponse struct {
	Items           []domain.LineItem    `json:"items"`
	Discount        domain.DiscountState `json:"discount"`
	Totals          domain.Totals        `json:"totals"`
	Formatted       formattedTotals      `json:"formatted"`
	ItemCount       int                  `json:"itemCount"`
	Badge           string               `json:"badge"`
	CheckoutEnabled bool                 `json:"checkoutEnabled"`
}

type couponResponse struct {
	Coupon domain.CouponResult `json:"coupon"`
	Cart   cartResponse        `json:"cart"`
}

func newCartResponse(s domain.CartSnapshot) cartResponse {
	return cartResponse{
		Items:    s.Items,
		Discount: s.Discount,
		Totals:   s.Totals,
		Formatted: formattedTotals{
			SubTotal:      utils.BRL(s.Totals.SubTotal),
			DiscountValue: utils.BRL(s.Totals.DiscountValue),
			Total:         utils.BRL(s.Totals.Total),
		},
		ItemCount:       s.ItemCount,
		Badge:           fmt.Sprintf("%02d", s.ItemCount),
		CheckoutEnabled: len(s.Items) > 0,
	}
}

func (h *CartHandler) cart(r *http.Request) (*usecase.CartUsecase, bool) {
	sid := middleware.SessionID(r.Context())
	if sid == "" {
		return nil, false
	}
	return h.sessions.Cart(r.Context(), sid), true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}
	utils.WriteJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

type addToCartReq struct {
	ProductID int    `json:"productId"`
	Quantity  int    `json:"quantity"`
	Type      string `json:"type"`
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}

	var req addToCartReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.ProductID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalogUC.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	product, err = h.catalogUC.ResolveType(product, req.Type)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := cart.Add(r.Context(), product, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, (*usecase.CartUsecase).Increase)
}

func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, (*usecase.CartUsecase).Decrease)
}

func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, (*usecase.CartUsecase).Remove)
}

func (h *CartHandler) mutateLine(w http.ResponseWriter, r *http.Request, op func(*usecase.CartUsecase, context.Context, int) error) {
	cart, ok := h.cart(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}
	id, ok := pathID(r, "productId")
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := op(cart, r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := cart.ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, couponResponse{Coupon: res, Cart: newCartResponse(cart.Snapshot())})
}

func (h *CartHandler) ClearCoupon(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}
	cart.ClearCoupon()
	utils.WriteJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}

	order, err := cart.Checkout()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
