package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds request rates per client IP and, optionally, for
// the whole process.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// MaxClients bounds the number of tracked client IPs; the least recently
	// seen are evicted first
	MaxClients int
	// GlobalRPS caps all clients together; zero disables the ceiling
	GlobalRPS   int
	GlobalBurst int
}

// DefaultRateLimitConfig returns the production limits
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		MaxClients:        10000,
	}
}

// limiterSet hands out one token bucket per key from a bounded LRU
type limiterSet struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache
}

func newLimiterSet(rps, burst, size int) *limiterSet {
	if size <= 0 {
		size = DefaultRateLimitConfig().MaxClients
	}
	// lru.New only fails for non-positive sizes
	buckets, _ := lru.New(size)
	return &limiterSet{limit: rate.Limit(rps), burst: burst, buckets: buckets}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if v, ok := s.buckets.Get(key); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(s.limit, s.burst)
	if prev, found, _ := s.buckets.PeekOrAdd(key, l); found {
		return prev.(*rate.Limiter)
	}
	return l
}

// RateLimit rejects requests over the client's bucket, or over the global
// ceiling when one is configured, with 429 and a Retry-After hint.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	clients := newLimiterSet(cfg.RequestsPerSecond, cfg.Burst, cfg.MaxClients)

	var global *rate.Limiter
	if cfg.GlobalRPS > 0 {
		burst := cfg.GlobalBurst
		if burst <= 0 {
			burst = cfg.GlobalRPS
		}
		global = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), burst)
	}

	return func(c *gin.Context) {
		if global != nil && !global.Allow() {
			tooManyRequests(c, global.Limit())
			return
		}
		if l := clients.get(c.ClientIP()); !l.Allow() {
			tooManyRequests(c, l.Limit())
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context, limit rate.Limit) {
	if limit > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(limit)))))
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
	})
}
