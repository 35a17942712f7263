package v1

import "net/http"

// RegisterRoutes mounts the storefront API on mux.
func RegisterRoutes(mux *http.ServeMux, catalog *CatalogHandler, cart *CartHandler, health *HealthHandler) {
	// Catalog (Public)
	mux.HandleFunc("GET /api/v1/home", catalog.GetHome)
	mux.HandleFunc("GET /api/v1/categories", catalog.GetCategories)
	mux.HandleFunc("GET /api/v1/products", catalog.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", catalog.GetProduct)
	mux.HandleFunc("GET /api/v1/products/{id}/related", catalog.GetRelated)

	// Cart (Session)
	mux.HandleFunc("GET /api/v1/cart", cart.GetCart)
	mux.HandleFunc("POST /api/v1/cart", cart.AddToCart)
	mux.HandleFunc("POST /api/v1/cart/{productId}/increase", cart.Increase)
	mux.HandleFunc("POST /api/v1/cart/{productId}/decrease", cart.Decrease)
	mux.HandleFunc("DELETE /api/v1/cart/{productId}", cart.RemoveFromCart)
	mux.HandleFunc("POST /api/v1/cart/coupon", cart.ApplyCoupon)
	mux.HandleFunc("DELETE /api/v1/cart/coupon", cart.ClearCoupon)
	mux.HandleFunc("POST /api/v1/checkout", cart.Checkout)

	// Health Check
	mux.HandleFunc("GET /api/v1/health", health.Health)
	mux.HandleFunc("GET /health", health.Health) // root health check for load balancers
}
