package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/metrics"
	"github.com/Softbalance/equipment/internal/utils"
)

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	clients  map[string]*client
	idleTTL  time.Duration
	lastScan time.Time
	now      func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows cfg.RateLimitRequests per cfg.RateLimitWindow.
func NewRateLimiter(cfg *config.SecurityConfig) *RateLimiter {
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = cfg.RateLimitRequests
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(cfg.RateLimitRequests) / cfg.RateLimitWindow.Seconds()),
		burst:   burst,
		clients: make(map[string]*client),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow takes a token for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastScan) > rl.idleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastScan = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimitMiddleware rejects clients over their budget with 429.
func RateLimitMiddleware(rl *RateLimiter, logger *utils.SecurityLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		logger.LogRateLimitViolation(c.ClientIP(), c.FullPath(), float64(rl.limit), rl.burst)
		if m != nil {
			m.RateLimited.Inc()
		}
		utils.ErrorResponse(c, http.StatusTooManyRequests, "Too many requests", nil)
		c.Abort()
	}
}
