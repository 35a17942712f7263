package v1

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/usecase"
	"storefront/pkg/utils"
)

type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc}
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalogUC.Categories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: cats})
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.ProductFilter{
		Category: query.Get("category"),
		Page:     utils.ParseInt(query.Get("page"), 1),
		Limit:    utils.ParseInt(query.Get("limit"), 0),
	}

	products, pagination, err := h.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: products, Meta: pagination})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalogUC.GetProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: productView(product)})
}

func (h *CatalogHandler) GetRelated(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	related, err := h.catalogUC.Related(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: related})
}

type homePage struct {
	Tab        domain.HomeTab   `json:"tab"`
	Discounted []domain.Product `json:"discounted"`
	Products   []domain.Product `json:"products"`
}

// GetHome serves the sale slider and one product tab of the home page.
func (h *CatalogHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	tab := domain.HomeTab(r.URL.Query().Get("tab"))
	if tab == "" {
		tab = domain.HomeTabBestseller
	}

	products, err := h.catalogUC.Home(r.Context(), tab)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	discounted, err := h.catalogUC.Discounted(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: homePage{
		Tab:        tab,
		Discounted: discounted,
		Products:   products,
	}})
}

type productDetail struct {
	domain.Product
	EffectivePrice          float64 `json:"effectivePrice"`
	FormattedPrice          string  `json:"formattedPrice"`
	FormattedEffectivePrice string  `json:"formattedEffectivePrice"`
}

func productView(p domain.Product) productDetail {
	effective := p.EffectiveUnitPrice()
	return productDetail{
		Product:                 p,
		EffectivePrice:          effective,
		FormattedPrice:          utils.BRL(p.Price),
		FormattedEffectivePrice: utils.BRL(effective),
	}
}
