package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/domain"
	cacheinfra "storefront/internal/infrastructure/cache"
	"storefront/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `[
	{"id":1,"name":"Sabonete Argila","price":20,"inStock":true,"category":"argila","types":["Verde",{"name":"Rosa 200g","price":25.5}]},
	{"id":2,"name":"Máscara","price":100,"discount":true,"discountPercent":20,"inStock":true,"category":"argila"},
	{"id":3,"name":"Óleo","price":45,"inStock":false,"category":"oleos"},
	{"id":4,"name":"Argila Branca","price":30,"inStock":false,"category":"argila"},
	{"id":5,"name":"Vela","price":60,"inStock":true,"category":"lume","informations":"Queima por 30h"},
	{"id":0,"name":"Sem id","price":10},
	{"id":6,"name":"Negativo","price":-1},
	{"id":7,"name":"Desconto","price":10,"discountPercent":150},
	{"id":2,"name":"Duplicado","price":1},
	{"id":8,"name":"Quebrado","price":"abc"}
]`

type stubSource struct {
	body  string
	err   error
	calls atomic.Int32
}

func (s *stubSource) Fetch(context.Context) (io.ReadCloser, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func newTestCatalog(src domain.CatalogSource) *CatalogUsecase {
	return NewCatalogUsecase(src, cacheinfra.NewMemoryCache(cache.NoExpiration, 0), testConfig())
}

func ids(products []domain.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestCatalog_ProductsSkipsInvalidAndCaches(t *testing.T) {
	src := &stubSource{body: testFeed}
	uc := newTestCatalog(src)
	ctx := context.Background()

	products, err := uc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(products))
	assert.Equal(t, "Máscara", products[1].Name, "first occurrence of a duplicate id wins")
	assert.Equal(t, domain.TextBlock{"Queima por 30h"}, products[4].Informations)

	_, err = uc.Products(ctx)
	require.NoError(t, err)
	_, err = uc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load(), "feed is fetched once")
}

func TestCatalog_Unavailable(t *testing.T) {
	ctx := context.Background()

	src := &stubSource{err: errors.New("connection refused")}
	uc := newTestCatalog(src)
	_, err := uc.Products(ctx)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	// failures are not cached
	src.err = nil
	src.body = testFeed
	products, err := uc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)

	_, err = newTestCatalog(&stubSource{body: `{"not":"a list"}`}).Products(ctx)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestCatalog_GetProduct(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: testFeed})
	ctx := context.Background()

	p, err := uc.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Vela", p.Name)

	_, err = uc.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalog_ResolveType(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: testFeed})
	p, err := uc.GetProduct(context.Background(), 1)
	require.NoError(t, err)

	same, err := uc.ResolveType(p, "")
	require.NoError(t, err)
	assert.Equal(t, p, same)

	green, err := uc.ResolveType(p, "Verde")
	require.NoError(t, err)
	assert.Equal(t, "Sabonete Argila - Verde", green.Name)
	assert.Equal(t, 20.0, green.Price)
	assert.Equal(t, 1, green.ID)

	pink, err := uc.ResolveType(p, "Rosa 200g")
	require.NoError(t, err)
	assert.Equal(t, "Sabonete Argila - Rosa 200g", pink.Name)
	assert.Equal(t, 25.5, pink.Price)
	assert.Equal(t, 20.0, p.Price, "source product is untouched")

	_, err = uc.ResolveType(p, "Azul")
	assert.ErrorIs(t, err, domain.ErrUnknownProductType)
}

func TestCatalog_Categories(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: testFeed})

	cats, err := uc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{
		{Slug: "argila", DisplayName: "Argila Pura", Count: 3},
		{Slug: "oleos", DisplayName: "Óleos Puros", Count: 1},
		{Slug: "lume", DisplayName: "Lume", Count: 1},
	}, cats)

	cfg := testConfig()
	cfg.CategoryNames = map[string]string{"lume": "Linha Lume"}
	uc = NewCatalogUsecase(&stubSource{body: testFeed}, cacheinfra.NewMemoryCache(cache.NoExpiration, 0), cfg)
	cats, err = uc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Linha Lume", cats[2].DisplayName)
	assert.Equal(t, "Argila Pura", cats[0].DisplayName)
}

func TestCatalog_ListProducts(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: testFeed})
	ctx := context.Background()

	all, page, err := uc.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 5, 3, 4}, ids(all), "in-stock products come first")
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 12, TotalItems: 5, TotalPages: 1}, page)

	second, page, err := uc.ListProducts(ctx, domain.ProductFilter{Category: "argila", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids(second))
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 2, TotalItems: 3, TotalPages: 2}, page)

	beyond, _, err := uc.ListProducts(ctx, domain.ProductFilter{Category: "argila", Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	none, page, err := uc.ListProducts(ctx, domain.ProductFilter{Category: "petcare"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, page.TotalPages)
}

func TestCatalog_Related(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: testFeed})
	ctx := context.Background()

	related, err := uc.Related(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids(related))

	related, err = uc.Related(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, related)

	_, err = uc.Related(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalog_ListProductsHugePagination(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: testFeed})
	ctx := context.Background()

	huge, page, err := uc.ListProducts(ctx, domain.ProductFilter{Page: 3, Limit: 1 << 62})
	require.NoError(t, err)
	assert.Empty(t, huge)
	assert.Equal(t, domain.Pagination{Page: 3, Limit: domain.MaxPageSize, TotalItems: 5, TotalPages: 1}, page)

	last, _, err := uc.ListProducts(ctx, domain.ProductFilter{Page: math.MaxInt, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, last)

	first, page, err := uc.ListProducts(ctx, domain.ProductFilter{Page: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, first, 5)
	assert.Equal(t, 1, page.TotalPages)
}

// blockingSource holds every fetch until release is closed or the fetch
// context ends.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	s.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.release:
		return io.NopCloser(strings.NewReader(testFeed)), nil
	}
}

func TestCatalog_CancelledCallerDoesNotFailJoiners(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}, 2), release: make(chan struct{})}
	cfg := testConfig()
	cfg.CatalogTimeout = 5 * time.Second
	uc := NewCatalogUsecase(src, cacheinfra.NewMemoryCache(cache.NoExpiration, 0), cfg)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := uc.Products(ctxA)
		errA <- err
	}()
	<-src.started

	type result struct {
		products []domain.Product
		err      error
	}
	resB := make(chan result, 1)
	go func() {
		products, err := uc.Products(context.Background())
		resB <- result{products, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(src.release)

	select {
	case b := <-resB:
		require.NoError(t, b.err)
		assert.Len(t, b.products, 5)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
}

func homeFeed() string {
	var b strings.Builder
	b.WriteString("[")
	for id := 1; id <= 11; id++ {
		if id > 1 {
			b.WriteString(",")
		}
		category := "argila"
		if id >= 10 {
			category = "dermocare"
		}
		fmt.Fprintf(&b, `{"id":%d,"name":"P%d","price":10,"inStock":%t,"bestSeller":%t,"discount":%t,"discountPercent":10,"category":%q}`,
			id, id, id != 2, id <= 10, id == 2 || id == 4, category)
	}
	b.WriteString("]")
	return b.String()
}

func TestCatalog_Home(t *testing.T) {
	uc := newTestCatalog(&stubSource{body: homeFeed()})
	ctx := context.Background()

	best, err := uc.Home(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5, 6, 7, 8, 9}, ids(best))

	fresh, err := uc.Home(ctx, domain.HomeTabNew)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11}, ids(fresh))

	sets, err := uc.Home(ctx, domain.HomeTabSets)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, ids(sets))

	_, err = uc.Home(ctx, "promo")
	assert.ErrorIs(t, err, domain.ErrUnknownHomeTab)

	discounted, err := uc.Discounted(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids(discounted), "out-of-stock sales are hidden")
}
