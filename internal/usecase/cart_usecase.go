package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/pkg/logger"

	"github.com/goccy/go-json"
)

const defaultMaxCartQuantity = 1000

// CouponValidator is satisfied by *CouponUsecase. The channel yields one
// outcome and is then closed.
type CouponValidator interface {
	ValidateAsync(ctx context.Context, code string) <-chan domain.CouponOutcome
}

// CartUsecase owns one browsing session's cart. Line items are persisted
// under key after every change; the discount lives only in memory.
// Listeners run with the cart locked and must not call back into it.
type CartUsecase struct {
	mu       sync.Mutex
	store    domain.KeyValueStore
	key      string
	maxQty   int
	coupons  CouponValidator
	checkout *CheckoutUsecase

	items    []domain.LineItem
	discount domain.DiscountState

	listeners    map[int]domain.CartListener
	nextListener int

	couponGen    uint64
	couponCancel context.CancelFunc
}

func NewCartUsecase(store domain.KeyValueStore, key string, coupons CouponValidator, checkout *CheckoutUsecase, cfg *config.Config) *CartUsecase {
	maxQty := cfg.MaxCartQuantity
	if maxQty < 1 {
		maxQty = defaultMaxCartQuantity
	}
	return &CartUsecase{
		store:     store,
		key:       key,
		maxQty:    maxQty,
		coupons:   coupons,
		checkout:  checkout,
		items:     []domain.LineItem{},
		listeners: map[int]domain.CartListener{},
	}
}

// Load rehydrates the cart from storage. A missing, unreadable or malformed
// entry leaves an empty cart; it never fails.
func (uc *CartUsecase) Load(ctx context.Context) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.items = uc.readItems(ctx)
	uc.clearDiscountIfEmpty()
	uc.notify()
}

func (uc *CartUsecase) readItems(ctx context.Context) []domain.LineItem {
	raw, ok, err := uc.store.GetItem(ctx, uc.key)
	if err != nil {
		logger.Warn().Err(err).Str("key", uc.key).Msg("Cart storage read failed, starting empty")
		return []domain.LineItem{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []domain.LineItem{}
	}

	var stored []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.Warn().Err(err).Str("key", uc.key).Msg("Malformed cart in storage, starting empty")
		return []domain.LineItem{}
	}

	items := make([]domain.LineItem, 0, len(stored))
	pos := make(map[int]int, len(stored))
	for _, it := range stored {
		if it.Quantity <= 0 || it.Product.Validate() != nil {
			logger.Warn().Int("product_id", it.Product.ID).Int("quantity", it.Quantity).Msg("Dropping invalid stored cart line")
			continue
		}
		if i, dup := pos[it.Product.ID]; dup {
			items[i].Quantity = min(items[i].Quantity+it.Quantity, uc.maxQty)
			continue
		}
		it.Quantity = min(it.Quantity, uc.maxQty)
		pos[it.Product.ID] = len(items)
		items = append(items, it)
	}
	return items
}

func (uc *CartUsecase) indexOf(id int) int {
	return slices.IndexFunc(uc.items, func(it domain.LineItem) bool {
		return it.Product.ID == id
	})
}

// Add puts quantity units of product in the cart, merging with an existing
// line for the same id. Quantities below 1 count as 1.
func (uc *CartUsecase) Add(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	if err := product.Validate(); err != nil {
		return err
	}
	if !product.InStock {
		return domain.ErrOutOfStock
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if i := uc.indexOf(product.ID); i >= 0 {
		// compare against the headroom so huge quantities cannot overflow
		if quantity > uc.maxQty-uc.items[i].Quantity {
			return fmt.Errorf("%w: %d more than %d already in cart, limit %d", domain.ErrQuantityLimit, quantity, uc.items[i].Quantity, uc.maxQty)
		}
		uc.items[i].Quantity += quantity
	} else {
		if quantity > uc.maxQty {
			return fmt.Errorf("%w: %d > %d", domain.ErrQuantityLimit, quantity, uc.maxQty)
		}
		uc.items = append(uc.items, domain.LineItem{Product: product, Quantity: quantity})
	}
	return uc.commit(ctx)
}

// Increase adds one unit. Unknown ids and lines at the limit are left alone.
func (uc *CartUsecase) Increase(ctx context.Context, id int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 || uc.items[i].Quantity >= uc.maxQty {
		return nil
	}
	uc.items[i].Quantity++
	return uc.commit(ctx)
}

// Decrease removes one unit but never takes a line below 1.
func (uc *CartUsecase) Decrease(ctx context.Context, id int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 || uc.items[i].Quantity <= 1 {
		return nil
	}
	uc.items[i].Quantity--
	return uc.commit(ctx)
}

func (uc *CartUsecase) Remove(ctx context.Context, id int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 {
		return nil
	}
	uc.items = slices.Delete(uc.items, i, i+1)
	return uc.commit(ctx)
}

// ApplyCoupon validates code and updates the discount. A blank code clears
// it. When a newer ApplyCoupon or ClearCoupon starts before this one
// finishes, this call returns domain.ErrCouponSuperseded and leaves the
// state to the newer call.
func (uc *CartUsecase) ApplyCoupon(ctx context.Context, code string) (domain.CouponResult, error) {
	if strings.TrimSpace(code) == "" {
		uc.ClearCoupon()
		return domain.CouponResult{}, nil
	}

	uc.mu.Lock()
	gen := uc.supersedePendingLocked()
	vctx, cancel := context.WithCancel(ctx)
	uc.couponCancel = cancel
	uc.mu.Unlock()

	// a superseded call returns as soon as its context is cancelled; the
	// pending validation finishes on its own
	var (
		outcome  domain.CouponOutcome
		finished bool
	)
	select {
	case outcome, finished = <-uc.coupons.ValidateAsync(vctx, code):
	case <-vctx.Done():
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	cancel()
	if gen != uc.couponGen {
		return domain.CouponResult{}, domain.ErrCouponSuperseded
	}
	uc.couponCancel = nil
	if !finished {
		return domain.CouponResult{}, vctx.Err()
	}
	if outcome.Err != nil {
		return domain.CouponResult{}, outcome.Err
	}
	res := outcome.Result

	if res.Valid {
		uc.discount = domain.DiscountState{DiscountPercent: res.DiscountPercent, CouponCode: res.Code}
	} else {
		uc.discount = domain.DiscountState{}
	}
	uc.clearDiscountIfEmpty()
	uc.notify()
	return res, nil
}

// ClearCoupon drops the discount and cancels any pending validation.
func (uc *CartUsecase) ClearCoupon() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.supersedePendingLocked()
	uc.discount = domain.DiscountState{}
	uc.notify()
}

// supersedePendingLocked cancels the in-flight validation, if any, and
// returns the generation owned by the caller.
func (uc *CartUsecase) supersedePendingLocked() uint64 {
	if uc.couponCancel != nil {
		uc.couponCancel()
		uc.couponCancel = nil
	}
	uc.couponGen++
	return uc.couponGen
}

// Subscribe registers l for change notifications. The returned func removes it.
func (uc *CartUsecase) Subscribe(l domain.CartListener) (unsubscribe func()) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	id := uc.nextListener
	uc.nextListener++
	uc.listeners[id] = l
	return func() {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		delete(uc.listeners, id)
	}
}

func (uc *CartUsecase) Snapshot() domain.CartSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snapshotLocked()
}

func (uc *CartUsecase) Items() []domain.LineItem {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return slices.Clone(uc.items)
}

func (uc *CartUsecase) Totals() domain.Totals {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return domain.CalculateTotals(uc.items, uc.discount.DiscountPercent)
}

func (uc *CartUsecase) Discount() domain.DiscountState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.discount
}

// Checkout composes the order for the current cart.
func (uc *CartUsecase) Checkout() (domain.CheckoutOrder, error) {
	uc.mu.Lock()
	items := slices.Clone(uc.items)
	discount := uc.discount
	uc.mu.Unlock()

	return uc.checkout.Checkout(items, discount)
}

func (uc *CartUsecase) snapshotLocked() domain.CartSnapshot {
	items := slices.Clone(uc.items)
	if items == nil {
		items = []domain.LineItem{}
	}
	return domain.CartSnapshot{
		Items:     items,
		Discount:  uc.discount,
		Totals:    domain.CalculateTotals(items, uc.discount.DiscountPercent),
		ItemCount: domain.ItemCount(items),
	}
}

func (uc *CartUsecase) clearDiscountIfEmpty() {
	if len(uc.items) == 0 {
		uc.discount = domain.DiscountState{}
	}
}

// commit runs after every line item mutation. A failed write keeps the
// in-memory change and returns the error; storage holds the previous cart
// until the next successful commit.
func (uc *CartUsecase) commit(ctx context.Context) error {
	uc.clearDiscountIfEmpty()
	err := uc.persist(ctx)
	uc.notify()
	return err
}

func (uc *CartUsecase) persist(ctx context.Context) error {
	b, err := json.Marshal(uc.items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := uc.store.SetItem(ctx, uc.key, string(b)); err != nil {
		logger.Error().Err(err).Str("key", uc.key).Msg("Failed to persist cart")
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (uc *CartUsecase) notify() {
	if len(uc.listeners) == 0 {
		return
	}
	snap := uc.snapshotLocked()
	ids := make([]int, 0, len(uc.listeners))
	for id := range uc.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		uc.listeners[id].CartChanged(snap)
	}
}
