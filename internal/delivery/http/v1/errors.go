package v1

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domain"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// writeDomainError maps usecase errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		utils.WriteError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrEmptyCart):
		utils.WriteError(w, http.StatusBadRequest, domain.CheckoutEmptyMessage)
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrQuantityLimit),
		errors.Is(err, domain.ErrUnknownProductType),
		errors.Is(err, domain.ErrUnknownHomeTab),
		domain.IsInvalidProductError(err):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCouponSuperseded):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCatalogUnavailable):
		utils.WriteError(w, http.StatusServiceUnavailable, "Catalog unavailable")
	default:
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
