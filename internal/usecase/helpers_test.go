package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/config"
	"storefront/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		CouponCodes:         map[string]int{"#CLIENT12": 12, "#SAVE5": 5},
		CheckoutBaseURL:     "https://wa.me",
		CheckoutDestination: "557381817294",
		MaxCartQuantity:     5,
		ProductsPerPage:     12,
		CartStorageKey:      "marvellaCart",
		SessionTTL:          time.Hour,
		CacheCatalogTTL:     time.Minute,
	}
}

// mapStore is a KeyValueStore with injectable failures.
type mapStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string]string{}}
}

func (s *mapStore) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.data[key] = value
	return nil
}

func (s *mapStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mapStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

var errStorageDown = errors.New("storage down")

// gateValidator blocks every validation until release is closed or the
// call's context is cancelled.
type gateValidator struct {
	codes   map[string]int
	started chan string
	release chan struct{}
}

func newGateValidator() *gateValidator {
	return &gateValidator{
		codes:   map[string]int{"#CLIENT12": 12, "#SAVE5": 5},
		started: make(chan string, 8),
		release: make(chan struct{}),
	}
}

func (v *gateValidator) Validate(ctx context.Context, code string) (domain.CouponResult, error) {
	v.started <- code
	select {
	case <-ctx.Done():
		return domain.CouponResult{}, ctx.Err()
	case <-v.release:
	}
	pct, ok := v.codes[code]
	if !ok {
		return domain.CouponResult{Code: code, Message: domain.CouponMessageInvalid}, nil
	}
	return domain.CouponResult{Code: code, Valid: true, DiscountPercent: pct, Message: domain.CouponMessageApplied}, nil
}

func (v *gateValidator) ValidateAsync(ctx context.Context, code string) <-chan domain.CouponOutcome {
	out := make(chan domain.CouponOutcome, 1)
	go func() {
		defer close(out)
		res, err := v.Validate(ctx, code)
		out <- domain.CouponOutcome{Result: res, Err: err}
	}()
	return out
}

func product(id int, name string, price float64) domain.Product {
	return domain.Product{ID: id, Name: name, Price: price, InStock: true, Category: "argila"}
}
