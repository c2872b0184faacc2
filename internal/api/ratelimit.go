package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client IP and forgets clients
// idle for longer than limiterIdleTTL.
type clientLimiters struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *clientLimiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, cl := range l.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiters := newClientLimiters(rps, burst)

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
