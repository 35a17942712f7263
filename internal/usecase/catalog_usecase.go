package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/pkg/cache"
	"storefront/pkg/logger"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

const catalogCacheKey = "catalog:products"

type catalogIndex struct {
	products []domain.Product
	byID     map[int]int
}

type CatalogUsecase struct {
	source domain.CatalogSource
	cache  cache.CacheService
	cfg    *config.Config
	group  singleflight.Group
}

func NewCatalogUsecase(source domain.CatalogSource, cache cache.CacheService, cfg *config.Config) *CatalogUsecase {
	return &CatalogUsecase{
		source: source,
		cache:  cache,
		cfg:    cfg,
	}
}

func (uc *CatalogUsecase) index(ctx context.Context) (*catalogIndex, error) {
	if val, found := uc.cache.Get(catalogCacheKey); found {
		return val.(*catalogIndex), nil
	}

	ch := uc.group.DoChan(catalogCacheKey, func() (interface{}, error) {
		// the fetch outlives the caller that started it: others may have joined
		fctx, cancel := uc.fetchContext(ctx)
		defer cancel()

		idx, err := uc.fetch(fctx)
		if err != nil {
			return nil, err
		}
		uc.cache.Set(catalogCacheKey, idx, uc.cfg.CacheCatalogTTL)
		return idx, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*catalogIndex), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (uc *CatalogUsecase) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if uc.cfg.CatalogTimeout > 0 {
		return context.WithTimeout(detached, uc.cfg.CatalogTimeout)
	}
	return context.WithCancel(detached)
}

func (uc *CatalogUsecase) fetch(ctx context.Context) (*catalogIndex, error) {
	start := time.Now()
	rc, err := uc.source.Fetch(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch catalog")
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rc.Close()

	// Entries are decoded one by one so a single bad record is skipped
	// instead of failing the whole feed.
	var raw []json.RawMessage
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		logger.Error().Err(err).Msg("Failed to decode catalog")
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrCatalogUnavailable, err)
	}

	idx := &catalogIndex{
		products: make([]domain.Product, 0, len(raw)),
		byID:     make(map[int]int, len(raw)),
	}
	for i, entry := range raw {
		var p domain.Product
		if err := json.Unmarshal(entry, &p); err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Skipping undecodable catalog entry")
			continue
		}
		if err := p.Validate(); err != nil {
			logger.Warn().Err(err).Int("index", i).Int("product_id", p.ID).Msg("Skipping invalid catalog entry")
			continue
		}
		if _, dup := idx.byID[p.ID]; dup {
			logger.Warn().Int("index", i).Int("product_id", p.ID).Msg("Skipping duplicate catalog id")
			continue
		}
		idx.byID[p.ID] = len(idx.products)
		idx.products = append(idx.products, p)
	}

	logger.CatalogLoaded(len(idx.products), len(raw)-len(idx.products), time.Since(start))
	return idx, nil
}

// Products returns the validated catalog in feed order.
func (uc *CatalogUsecase) Products(ctx context.Context) ([]domain.Product, error) {
	idx, err := uc.index(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(idx.products), nil
}

func (uc *CatalogUsecase) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	idx, err := uc.index(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	i, ok := idx.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return idx.products[i], nil
}

// ResolveType returns the product as sold in the chosen variation: the name
// gains a " - {type}" suffix and the type price replaces the product price.
func (uc *CatalogUsecase) ResolveType(product domain.Product, typeName string) (domain.Product, error) {
	if typeName == "" {
		return product, nil
	}
	for _, t := range product.Types {
		if t.Name != typeName {
			continue
		}
		resolved := product
		resolved.Name = product.Name + " - " + t.Name
		if t.Price != nil {
			resolved.Price = *t.Price
		}
		resolved.Types = nil
		return resolved, nil
	}
	return domain.Product{}, fmt.Errorf("%w: %q", domain.ErrUnknownProductType, typeName)
}

// Categories counts products per category in first-seen order.
func (uc *CatalogUsecase) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	idx, err := uc.index(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.CategoryCount
	pos := map[string]int{}
	for _, p := range idx.products {
		if p.Category == "" {
			continue
		}
		if i, ok := pos[p.Category]; ok {
			out[i].Count++
			continue
		}
		name := uc.categoryName(p.Category)
		pos[p.Category] = len(out)
		out = append(out, domain.CategoryCount{Slug: p.Category, DisplayName: name, Count: 1})
	}
	return out, nil
}

// ListProducts filters by category and returns one page.
func (uc *CatalogUsecase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, domain.Pagination, error) {
	idx, err := uc.index(ctx)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = uc.cfg.ProductsPerPage
	}
	limit = min(limit, domain.MaxPageSize)
	page := max(filter.Page, 1)

	matched := make([]domain.Product, 0, len(idx.products))
	for _, p := range idx.products {
		if filter.Category == "" || p.Category == filter.Category {
			matched = append(matched, p)
		}
	}
	// in-stock products first, feed order otherwise
	slices.SortStableFunc(matched, func(a, b domain.Product) int {
		switch {
		case a.InStock == b.InStock:
			return 0
		case a.InStock:
			return -1
		default:
			return 1
		}
	})

	total := len(matched)
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	pagination := domain.Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}

	// compare page numbers before multiplying so huge pages cannot overflow
	if page > totalPages {
		return []domain.Product{}, pagination, nil
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	return matched[start:end], pagination, nil
}

// Discounted lists in-stock products on sale, for the home page slider.
func (uc *CatalogUsecase) Discounted(ctx context.Context) ([]domain.Product, error) {
	idx, err := uc.index(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, p := range idx.products {
		if p.InStock && p.Discount {
			out = append(out, p)
		}
	}
	return out, nil
}

// Home returns the products of a home page tab. Only in-stock products are
// shown; an empty tab means bestsellers.
func (uc *CatalogUsecase) Home(ctx context.Context, tab domain.HomeTab) ([]domain.Product, error) {
	if tab == "" {
		tab = domain.HomeTabBestseller
	}
	if !tab.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownHomeTab, tab)
	}

	idx, err := uc.index(ctx)
	if err != nil {
		return nil, err
	}
	inStock := make([]domain.Product, 0, len(idx.products))
	for _, p := range idx.products {
		if p.InStock {
			inStock = append(inStock, p)
		}
	}

	switch tab {
	case domain.HomeTabNew:
		return slices.Clone(inStock[max(0, len(inStock)-domain.HomeTabSize):]), nil
	case domain.HomeTabSets:
		sets := make([]domain.Product, 0)
		for _, p := range inStock {
			if p.Category == domain.HomeSetsCategory {
				sets = append(sets, p)
			}
		}
		return sets, nil
	default:
		best := make([]domain.Product, 0, domain.HomeTabSize)
		for _, p := range inStock {
			if p.BestSeller && len(best) < domain.HomeTabSize {
				best = append(best, p)
			}
		}
		return best, nil
	}
}

// Related lists other in-stock products of the same category.
func (uc *CatalogUsecase) Related(ctx context.Context, id int) ([]domain.Product, error) {
	current, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	idx, err := uc.index(ctx)
	if err != nil {
		return nil, err
	}

	related := make([]domain.Product, 0)
	for _, p := range idx.products {
		if p.Category == current.Category && p.ID != current.ID && p.InStock {
			related = append(related, p)
		}
	}
	return related, nil
}

// categoryName prefers configured labels over the built-in table.
func (uc *CatalogUsecase) categoryName(slug string) string {
	if name, ok := uc.cfg.CategoryNames[slug]; ok {
		return name
	}
	if name, ok := domain.CategoryDisplayNames[slug]; ok {
		return name
	}
	return slug
}
