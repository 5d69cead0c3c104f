package apiserver

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimiters hands out one token-bucket limiter per API token subject,
// limiting the rate of that subject's requests to every /v1 route (not the
// number of pipelines running at once), in place of the teacher's
// MaxConcurrentExecs governance concept, without reintroducing a
// scheduler (SPEC_FULL.md DOMAIN STACK).
type rateLimiters struct {
	mu       sync.Mutex
	perSec   rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newRateLimiters(perSec float64, burst int) *rateLimiters {
	return &rateLimiters{perSec: rate.Limit(perSec), burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (r *rateLimiters) forSubject(subject string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[subject]
	if !ok {
		l = rate.NewLimiter(r.perSec, r.burst)
		r.limiters[subject] = l
	}
	return l
}

func rateLimit(rl *rateLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := subjectFrom(c)
		if !rl.forSubject(subject).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "RATE_LIMITED"})
			c.Abort()
			return
		}
		c.Next()
	}
}
