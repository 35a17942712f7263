package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"storefront/config"
	cacheinfra "storefront/internal/infrastructure/cache"
	"storefront/pkg/cache"
	"storefront/pkg/utils"

	"golang.org/x/time/rate"
)

// RateLimiter throttles per client IP. Each client gets a token bucket that
// expires after clientTTL without traffic; expired buckets are swept every
// cleanup period until Shutdown.
type RateLimiter struct {
	buckets   cache.CacheService
	limit     rate.Limit
	burst     int
	clientTTL time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRateLimiter reads RATE_LIMIT_RPS and RATE_LIMIT_BURST from cfg.
func NewRateLimiter(ctx context.Context, cfg *config.Config, cleanupPeriod, clientTTL time.Duration) *RateLimiter {
	ctx, cancel := context.WithCancel(ctx)
	rl := &RateLimiter{
		// sweeping is driven by our own loop so Shutdown can stop it
		buckets:   cacheinfra.NewMemoryCache(clientTTL, 0),
		limit:     rate.Limit(cfg.RateLimitRPS),
		burst:     cfg.RateLimitBurst,
		clientTTL: clientTTL,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go rl.sweep(ctx, cleanupPeriod)
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := rl.bucket(getClientIP(r))
			if !bucket.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(bucket)))
				utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bucket returns the client's limiter, extending its lifetime.
func (rl *RateLimiter) bucket(ip string) *rate.Limiter {
	if v, ok := rl.buckets.Get(ip); ok {
		rl.buckets.Set(ip, v, rl.clientTTL)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.buckets.Add(ip, limiter, rl.clientTTL); err != nil {
		// a concurrent request registered the client first
		if v, ok := rl.buckets.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// retryAfter is the whole number of seconds until the next token.
func retryAfter(l *rate.Limiter) int {
	res := l.Reserve()
	defer res.Cancel()
	if !res.OK() {
		return 1
	}
	return max(1, int(math.Ceil(res.Delay().Seconds())))
}

func (rl *RateLimiter) sweep(ctx context.Context, every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.buckets.DeleteExpired()
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops the sweeper and waits for it to exit.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
	<-rl.done
}
