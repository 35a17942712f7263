package usecase

import (
	"context"
	"time"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// CouponUsecase checks codes against the static coupon table. Lookups carry
// a configurable delay that stands in for a network round trip.
type CouponUsecase struct {
	codes   map[string]int
	latency time.Duration
}

// NewCouponUsecase creates a new CouponUsecase instance.
func NewCouponUsecase(cfg *config.Config) *CouponUsecase {
	codes := make(map[string]int, len(cfg.CouponCodes))
	for code, pct := range cfg.CouponCodes {
		codes[utils.NormalizeCode(code)] = pct
	}
	return &CouponUsecase{
		codes:   codes,
		latency: cfg.CouponLatency,
	}
}

// Validate matches code case-insensitively, ignoring surrounding whitespace.
// It only fails when ctx is done before the lookup completes.
func (uc *CouponUsecase) Validate(ctx context.Context, code string) (domain.CouponResult, error) {
	if uc.latency > 0 {
		timer := time.NewTimer(uc.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.CouponResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return domain.CouponResult{}, err
	}

	clean := utils.NormalizeCode(code)
	pct, ok := uc.codes[clean]
	if !ok || clean == "" {
		logger.CouponChecked(clean, false, 0)
		return domain.CouponResult{
			Code:    clean,
			Valid:   false,
			Message: domain.CouponMessageInvalid,
		}, nil
	}

	logger.CouponChecked(clean, true, pct)
	return domain.CouponResult{
		Code:            clean,
		Valid:           true,
		DiscountPercent: pct,
		Message:         domain.CouponMessageApplied,
	}, nil
}

// ValidateAsync runs Validate in its own goroutine. The channel receives
// exactly one outcome and is then closed.
func (uc *CouponUsecase) ValidateAsync(ctx context.Context, code string) <-chan domain.CouponOutcome {
	out := make(chan domain.CouponOutcome, 1)
	go func() {
		defer close(out)
		res, err := uc.Validate(ctx, code)
		out <- domain.CouponOutcome{Result: res, Err: err}
	}()
	return out
}
