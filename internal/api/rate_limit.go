package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits each client address to rps requests per second.
// An rps of 0 disables limiting.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := &clientLimiters{rps: rps, byClient: make(map[string]*clientLimiter)}
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}
		c.Next()
	}
}

const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	*rate.Limiter
	seen time.Time
}

type clientLimiters struct {
	mu        sync.Mutex
	rps       int
	byClient  map[string]*clientLimiter
	lastSweep time.Time
}

func (l *clientLimiters) get(client string) *clientLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, v := range l.byClient {
			if now.Sub(v.seen) > limiterIdleTTL {
				delete(l.byClient, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.byClient[client]
	if !ok {
		cl = &clientLimiter{Limiter: rate.NewLimiter(rate.Limit(l.rps), l.rps)}
		l.byClient[client] = cl
	}
	cl.seen = now
	return cl
}
