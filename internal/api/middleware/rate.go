package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL is how long an idle client's bucket is kept
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the HTTP control-surface limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           5 * time.Minute,
	}
}

// NewLimiter builds a token bucket for the given rate. A non-positive rate
// means unlimited.
func NewLimiter(perSecond, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = perSecond
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Clients is a set of per-key token buckets with idle eviction
type Clients struct {
	cfg       RateLimitConfig
	now       func() time.Time
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewClients creates an empty bucket set
func NewClients(cfg RateLimitConfig) *Clients {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &Clients{
		cfg:     cfg,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow spends one token from key's bucket
func (c *Clients) Allow(key string) bool {
	now := c.now()

	c.mu.Lock()
	if now.Sub(c.lastSweep) >= c.cfg.IdleTTL {
		for k, cl := range c.clients {
			if now.Sub(cl.lastSeen) >= c.cfg.IdleTTL {
				delete(c.clients, k)
			}
		}
		c.lastSweep = now
	}
	cl, ok := c.clients[key]
	if !ok {
		cl = &client{limiter: NewLimiter(c.cfg.RequestsPerSecond, c.cfg.Burst)}
		c.clients[key] = cl
	}
	cl.lastSeen = now
	limiter := cl.limiter
	c.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients
func (c *Clients) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	clients := NewClients(cfg)

	return func(c *gin.Context) {
		if !clients.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
