package usecase

import (
	"context"
	"math"
	"strings"
	"testing"

	"storefront/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const cartKey = "marvellaCart:test"

func newTestCart(store domain.KeyValueStore) *CartUsecase {
	cfg := testConfig()
	return NewCartUsecase(store, cartKey, NewCouponUsecase(cfg), NewCheckoutUsecase(cfg), cfg)
}

func TestCart_AddMergesSameID(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	soap := product(1, "Soap", 10)

	require.NoError(t, cart.Add(ctx, soap, 1))
	require.NoError(t, cart.Add(ctx, soap, 1))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCart_AddClampsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	soap := product(1, "Soap", 10)

	require.NoError(t, cart.Add(ctx, soap, 0))
	assert.Equal(t, 1, cart.Items()[0].Quantity)

	require.NoError(t, cart.Add(ctx, soap, -3))
	assert.Equal(t, 2, cart.Items()[0].Quantity)
}

func TestCart_AddRejects(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	cart := newTestCart(store)

	soldOut := product(3, "Óleo", 45)
	soldOut.InStock = false
	assert.ErrorIs(t, cart.Add(ctx, soldOut, 1), domain.ErrOutOfStock)

	assert.True(t, domain.IsInvalidProductError(cart.Add(ctx, product(0, "Sem id", 1), 1)))

	assert.Empty(t, cart.Items())
	assert.Zero(t, store.sets, "rejected adds are not persisted")
}

func TestCart_QuantityLimit(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	soap := product(1, "Soap", 10)

	assert.ErrorIs(t, cart.Add(ctx, soap, 6), domain.ErrQuantityLimit)
	require.NoError(t, cart.Add(ctx, soap, 5))
	assert.ErrorIs(t, cart.Add(ctx, soap, 1), domain.ErrQuantityLimit)

	require.NoError(t, cart.Increase(ctx, 1))
	assert.Equal(t, 5, cart.Items()[0].Quantity)
}

func TestCart_QuantityLimitDoesNotOverflow(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	cart := newTestCart(store)
	soap := product(1, "Soap", 10)

	assert.ErrorIs(t, cart.Add(ctx, soap, math.MaxInt), domain.ErrQuantityLimit)
	require.NoError(t, cart.Add(ctx, soap, 1))
	assert.ErrorIs(t, cart.Add(ctx, soap, math.MaxInt), domain.ErrQuantityLimit)
	assert.ErrorIs(t, cart.Add(ctx, soap, math.MaxInt-1), domain.ErrQuantityLimit)

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 10.0, cart.Totals().Total)
	assert.Equal(t, 1, store.sets)
}

func TestCart_CancelledCouponContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	gate := newGateValidator()
	cart := NewCartUsecase(newMapStore(), cartKey, gate, NewCheckoutUsecase(cfg), cfg)
	require.NoError(t, cart.Add(context.Background(), product(1, "Soap", 100), 1))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := cart.ApplyCoupon(ctx, "#CLIENT12")
		errCh <- err
	}()
	<-gate.started
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, domain.DiscountState{}, cart.Discount())
}

func TestCart_IncreaseDecrease(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	require.NoError(t, cart.Add(ctx, product(1, "Soap", 10), 1))

	require.NoError(t, cart.Increase(ctx, 1))
	require.NoError(t, cart.Increase(ctx, 1))
	assert.Equal(t, 3, cart.Items()[0].Quantity)

	for i := 0; i < 5; i++ {
		require.NoError(t, cart.Decrease(ctx, 1))
	}
	assert.Equal(t, 1, cart.Items()[0].Quantity, "decrease floors at 1")

	// unknown ids are ignored
	require.NoError(t, cart.Increase(ctx, 99))
	require.NoError(t, cart.Decrease(ctx, 99))
	assert.Len(t, cart.Items(), 1)
}

func TestCart_Remove(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	require.NoError(t, cart.Add(ctx, product(1, "Soap", 10), 1))
	require.NoError(t, cart.Add(ctx, product(2, "Vela", 60), 2))

	before := cart.Items()
	require.NoError(t, cart.Remove(ctx, 42))
	assert.Equal(t, before, cart.Items())

	require.NoError(t, cart.Remove(ctx, 1))
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Product.ID)
}

func TestCart_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()

	first := newTestCart(store)
	discounted := product(2, "Máscara", 100)
	discounted.Discount = true
	discounted.DiscountPercent = 20
	require.NoError(t, first.Add(ctx, product(1, "Soap", 10), 2))
	require.NoError(t, first.Add(ctx, discounted, 1))

	raw := store.get(cartKey)
	assert.Contains(t, raw, `"product"`)
	assert.Contains(t, raw, `"quantity"`)

	second := newTestCart(store)
	second.Load(ctx)
	if diff := cmp.Diff(first.Items(), second.Items()); diff != "" {
		t.Errorf("reloaded cart mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, first.Totals(), second.Totals())
}

func TestCart_LoadIsFailSafe(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		cart := newTestCart(newMapStore())
		cart.Load(ctx)
		assert.Empty(t, cart.Items())
	})

	t.Run("malformed", func(t *testing.T) {
		store := newMapStore()
		store.data[cartKey] = "{oops"
		cart := newTestCart(store)
		cart.Load(ctx)
		assert.Empty(t, cart.Items())
	})

	t.Run("read error", func(t *testing.T) {
		store := newMapStore()
		store.getErr = errStorageDown
		cart := newTestCart(store)
		cart.Load(ctx)
		assert.Empty(t, cart.Items())
	})

	t.Run("invalid and duplicate lines", func(t *testing.T) {
		store := newMapStore()
		store.data[cartKey] = `[
			{"product":{"id":1,"name":"A","price":10,"inStock":true},"quantity":2},
			{"product":{"id":1,"name":"A","price":10,"inStock":true},"quantity":2},
			{"product":{"id":2,"name":"B","price":5,"inStock":true},"quantity":0},
			{"product":{"id":0,"name":"C","price":5,"inStock":true},"quantity":1},
			{"product":{"id":3,"name":"D","price":-5,"inStock":true},"quantity":1}
		]`
		cart := newTestCart(store)
		cart.Load(ctx)

		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 1, items[0].Product.ID)
		assert.Equal(t, 4, items[0].Quantity)
	})

	t.Run("quantity above limit is capped", func(t *testing.T) {
		store := newMapStore()
		store.data[cartKey] = `[{"product":{"id":1,"name":"A","price":10,"inStock":true},"quantity":50}]`
		cart := newTestCart(store)
		cart.Load(ctx)
		assert.Equal(t, 5, cart.Items()[0].Quantity)
	})
}

func TestCart_PersistError(t *testing.T) {
	store := newMapStore()
	store.setErr = errStorageDown
	cart := newTestCart(store)

	err := cart.Add(context.Background(), product(1, "Soap", 10), 1)
	assert.ErrorIs(t, err, errStorageDown)
	// the in-memory cart keeps the change
	assert.Len(t, cart.Items(), 1)
}

func TestCart_Coupon(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	require.NoError(t, cart.Add(ctx, product(1, "Soap", 100), 1))

	res, err := cart.ApplyCoupon(ctx, " #client12 ")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, domain.CouponMessageApplied, res.Message)
	assert.Equal(t, domain.DiscountState{DiscountPercent: 12, CouponCode: "#CLIENT12"}, cart.Discount())
	assert.InDelta(t, 88.0, cart.Totals().Total, 1e-9)

	res, err = cart.ApplyCoupon(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, domain.CouponMessageInvalid, res.Message)
	assert.Equal(t, domain.DiscountState{}, cart.Discount())

	_, err = cart.ApplyCoupon(ctx, "#SAVE5")
	require.NoError(t, err)
	_, err = cart.ApplyCoupon(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountState{}, cart.Discount(), "blank code clears the discount")
}

func TestCart_EmptyCartResetsDiscount(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())

	res, err := cart.ApplyCoupon(ctx, "#CLIENT12")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, domain.DiscountState{}, cart.Discount(), "no discount on an empty cart")

	require.NoError(t, cart.Add(ctx, product(1, "Soap", 10), 1))
	_, err = cart.ApplyCoupon(ctx, "#CLIENT12")
	require.NoError(t, err)
	assert.Equal(t, 12, cart.Discount().DiscountPercent)

	require.NoError(t, cart.Remove(ctx, 1))
	assert.Equal(t, domain.DiscountState{}, cart.Discount())
}

func TestCart_LatestCouponWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cfg := testConfig()
	gate := newGateValidator()
	cart := NewCartUsecase(newMapStore(), cartKey, gate, NewCheckoutUsecase(cfg), cfg)
	require.NoError(t, cart.Add(ctx, product(1, "Soap", 100), 1))

	firstErr := make(chan error, 1)
	go func() {
		_, err := cart.ApplyCoupon(ctx, "#CLIENT12")
		firstErr <- err
	}()
	assert.Equal(t, "#CLIENT12", <-gate.started)

	type outcome struct {
		res domain.CouponResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := cart.ApplyCoupon(ctx, "#SAVE5")
		second <- outcome{res, err}
	}()
	assert.Equal(t, "#SAVE5", <-gate.started)

	assert.ErrorIs(t, <-firstErr, domain.ErrCouponSuperseded)
	assert.Equal(t, domain.DiscountState{}, cart.Discount(), "stale call leaves state alone")

	close(gate.release)
	got := <-second
	require.NoError(t, got.err)
	assert.True(t, got.res.Valid)
	assert.Equal(t, domain.DiscountState{DiscountPercent: 5, CouponCode: "#SAVE5"}, cart.Discount())
}

func TestCart_ClearCouponSupersedesPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cfg := testConfig()
	gate := newGateValidator()
	cart := NewCartUsecase(newMapStore(), cartKey, gate, NewCheckoutUsecase(cfg), cfg)
	require.NoError(t, cart.Add(ctx, product(1, "Soap", 100), 1))

	errCh := make(chan error, 1)
	go func() {
		_, err := cart.ApplyCoupon(ctx, "#CLIENT12")
		errCh <- err
	}()
	<-gate.started

	cart.ClearCoupon()
	assert.ErrorIs(t, <-errCh, domain.ErrCouponSuperseded)
	assert.Equal(t, domain.DiscountState{}, cart.Discount())
}

func TestCart_Checkout(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())

	_, err := cart.Checkout()
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	require.NoError(t, cart.Add(ctx, product(1, "Soap", 100), 2))
	_, err = cart.ApplyCoupon(ctx, "#CLIENT12")
	require.NoError(t, err)

	order, err := cart.Checkout()
	require.NoError(t, err)
	assert.Contains(t, order.Message, "2x Soap - R$200,00")
	assert.Contains(t, order.Message, "Cupom: #CLIENT12")
	assert.Contains(t, order.Message, "*Total Final: R$176,00*")
	assert.True(t, strings.HasPrefix(order.URL, "https://wa.me/557381817294?text="))
}

func TestCart_Listeners(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())

	var snaps []domain.CartSnapshot
	unsubscribe := cart.Subscribe(domain.CartListenerFunc(func(s domain.CartSnapshot) {
		snaps = append(snaps, s)
	}))

	require.NoError(t, cart.Add(ctx, product(1, "Soap", 10), 2))
	require.NoError(t, cart.Increase(ctx, 1))
	require.Len(t, snaps, 2)
	assert.Equal(t, 3, snaps[1].ItemCount)
	assert.InDelta(t, 30.0, snaps[1].Totals.Total, 1e-9)

	// no change, no notification
	require.NoError(t, cart.Increase(ctx, 99))
	assert.Len(t, snaps, 2)

	unsubscribe()
	require.NoError(t, cart.Remove(ctx, 1))
	assert.Len(t, snaps, 2)
}

func TestCart_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart(newMapStore())
	require.NoError(t, cart.Add(ctx, product(1, "Soap", 10), 1))

	snap := cart.Snapshot()
	snap.Items[0].Quantity = 99
	assert.Equal(t, 1, cart.Items()[0].Quantity)
}
