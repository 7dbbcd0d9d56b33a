// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"golang.org/x/time/rate"
)

const ipLimiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than idleTTL are dropped on the next allow call that runs a cleanup.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter

	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	lastCleanup time.Time
	now         func() time.Time
}

// newIPRateLimiter returns nil when rps is not positive, which disables
// throttling.
func newIPRateLimiter(rps float64, burst int, idleTTL time.Duration) *ipRateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	return &ipRateLimiter{
		limiters:    make(map[string]*ipLimiter),
		limit:       rate.Limit(rps),
		burst:       burst,
		idleTTL:     idleTTL,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// allow reports whether ip may proceed and, if not, how long to wait.
func (l *ipRateLimiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}

	reservation := entry.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return false, delay
}

func (l *ipRateLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < l.idleTTL {
		return
	}
	l.lastCleanup = now

	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, ip)
		}
	}
}

// withIPRateLimit throttles unauthenticated endpoints by client IP. A nil
// limiter lets every request through.
func (h *Handler) withIPRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := utils.ClientIP(r)
		allowed, delay := h.limiter.allow(ip)
		if !allowed {
			retryAfter := max(int(delay.Round(time.Second)/time.Second), 1)
			logger.FromRequest(r).Warn().
				Str("client_ip", ip).
				Str("uri", r.URL.Path).
				Int("retry_after", retryAfter).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, r, service.ErrTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
