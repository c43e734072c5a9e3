package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused client limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore hands out one token bucket per client key.
type limiterStore struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
	lastGC  time.Time
	now     func() time.Time
}

func newLimiterStore(perSecond float64) *limiterStore {
	return &limiterStore{
		limit:   rate.Limit(perSecond),
		burst:   max(1, int(math.Ceil(perSecond*2))),
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastGC) > limiterIdleTTL {
		for k, c := range s.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(s.clients, k)
			}
		}
		s.lastGC = now
	}

	c, ok := s.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

type RateLimitMiddleware struct {
	server *server.Server
	store  *limiterStore
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
		store:  newLimiterStore(s.Config.Server.RateLimit),
	}
}

// Limit rejects a client IP that exceeds Server.RateLimit requests per
// second with 429.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.store.allow(c.RealIP()) {
				return next(c)
			}
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().Str("ip", c.RealIP()).Msg("rate limit exceeded")
			c.Response().Header().Set("Retry-After", "1")
			return &errs.HTTPError{
				Code:     "RATE_LIMITED",
				Message:  "Too many requests",
				Status:   http.StatusTooManyRequests,
				Override: true,
			}
		}
	}
}

func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}
