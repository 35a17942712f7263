package usecase

import (
	"context"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

// SessionUsecase hands out one CartUsecase per browsing session. Idle
// sessions expire after cfg.SessionTTL; their carts stay in storage and are
// rehydrated on the next visit.
type SessionUsecase struct {
	sessions cache.CacheService
	store    domain.KeyValueStore
	coupons  CouponValidator
	checkout *CheckoutUsecase
	cfg      *config.Config
}

func NewSessionUsecase(sessions cache.CacheService, store domain.KeyValueStore, coupons CouponValidator, checkout *CheckoutUsecase, cfg *config.Config) *SessionUsecase {
	return &SessionUsecase{
		sessions: sessions,
		store:    store,
		coupons:  coupons,
		checkout: checkout,
		cfg:      cfg,
	}
}

// StorageKey is where a session's cart is persisted.
func (uc *SessionUsecase) StorageKey(sessionID string) string {
	return uc.cfg.CartStorageKey + ":" + sessionID
}

// Cart returns the session's cart, loading it from storage on first use.
func (uc *SessionUsecase) Cart(ctx context.Context, sessionID string) *CartUsecase {
	key := "session:" + sessionID
	if val, found := uc.sessions.Get(key); found {
		// touch to extend the idle timeout
		uc.sessions.Set(key, val, uc.cfg.SessionTTL)
		return val.(*CartUsecase)
	}

	cart := NewCartUsecase(uc.store, uc.StorageKey(sessionID), uc.coupons, uc.checkout, uc.cfg)
	cart.Load(ctx)

	if err := uc.sessions.Add(key, cart, uc.cfg.SessionTTL); err != nil {
		// another request created it first
		if val, found := uc.sessions.Get(key); found {
			return val.(*CartUsecase)
		}
		uc.sessions.Set(key, cart, uc.cfg.SessionTTL)
	}
	logger.Debug().Str("session_id", sessionID).Int("items", len(cart.Items())).Msg("Session cart loaded")
	return cart
}

// ActiveSessions counts sessions held in memory.
func (uc *SessionUsecase) ActiveSessions() int {
	return uc.sessions.ItemCount()
}
