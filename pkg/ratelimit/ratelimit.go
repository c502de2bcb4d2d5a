// Package ratelimit keeps a token bucket per client key and exposes it as
// echo middleware.
package ratelimit

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter gives each key its own limiter. Keys idle for longer than
// the refill window are dropped by the sweeper.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New allows requests per window for each key, all of which may be spent at
// once.
func New(requests int, window time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		idle:     window,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go krl.sweep(window)

	return krl
}

// Allow reports whether a request for key may proceed.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	now := krl.now()
	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastSeen = now
	krl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len is the number of keys currently tracked.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

// Stop shuts down the sweeper.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictIdle()
		}
	}
}

// evictIdle drops keys that have had a full window to refill, so a returning
// client starts from the same full bucket it would have had anyway.
func (krl *KeyedRateLimiter) evictIdle() {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idle)
	for key, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, key)
		}
	}
}

// Middleware rejects requests with 429 once the client's bucket is empty.
// Clients are keyed by echo's RealIP.
func Middleware(krl *KeyedRateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !krl.Allow(ip) {
				logger.FromContext(c.Request().Context()).Warn("rate limit exceeded", logger.Data{
					"ip":   ip,
					"path": c.Request().URL.Path,
				})
				return errcodes.TooManyRequests()
			}
			return next(c)
		}
	}
}
