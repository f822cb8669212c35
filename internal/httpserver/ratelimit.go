package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fdg312/mealcart/internal/apperr"
	"github.com/fdg312/mealcart/internal/config"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Idle clients are forgotten after limiterIdleTTL; a returning client starts
// with a full bucket, which is what an idle limiter would hold anyway.
const limiterIdleTTL = 10 * time.Minute

type rateLimiterStore struct {
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
}

func newRateLimiterStore(rps, burst int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (s *rateLimiterStore) allow(ip string) bool {
	if v, ok := s.limiters.Get(ip); ok {
		l := v.(*rate.Limiter)
		s.limiters.SetDefault(ip, l)
		return l.Allow()
	}

	l := rate.NewLimiter(s.rps, s.burst)
	// When two first requests from one IP race, the loser's Add fails and it
	// is charged to the winner's limiter instead of its own.
	if err := s.limiters.Add(ip, l, cache.DefaultExpiration); err != nil {
		if v, ok := s.limiters.Get(ip); ok {
			l = v.(*rate.Limiter)
		}
	}
	return l.Allow()
}

// RateLimitMiddleware enforces per-IP token buckets. RateLimitRPS <= 0
// disables it; burst defaults to the rate.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next
	}

	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = cfg.RateLimitRPS
	}
	store := newRateLimiterStore(cfg.RateLimitRPS, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !store.allow(extractIP(r)) {
			w.Header().Set("Retry-After", "1")
			apperr.WriteJSON(w, http.StatusTooManyRequests, "rate_limited", "Too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractIP prefers the first X-Forwarded-For hop, then RemoteAddr.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
