package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"one-ui-backend/internal/model"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	perMin   int
	lastSeen time.Time
}

type limiterRegistry struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// get returns the bucket for key sized to perMin requests per minute. A
// stored-limit change replaces the bucket, so the new quota is available
// immediately instead of waiting for the old bucket to refill.
func (r *limiterRegistry) get(key string, perMin int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(perMinRate(perMin), perMinBurst(perMin)), perMin: perMin}
		r.entries[key] = entry
		if len(r.entries) > 10000 {
			r.sweepLocked()
		}
	} else if entry.perMin != perMin {
		entry.limiter = rate.NewLimiter(perMinRate(perMin), perMinBurst(perMin))
		entry.perMin = perMin
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// sweepLocked drops limiters idle for ten minutes so the registry does not
// grow without bound under churning client IPs.
func (r *limiterRegistry) sweepLocked() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for key, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, key)
		}
	}
}

func perMinRate(perMin int) rate.Limit {
	return rate.Limit(float64(perMin) / 60.0)
}

// perMinBurst allows a tenth of the minute quota at once, so short bursts
// pass while the sustained rate holds.
func perMinBurst(perMin int) int {
	burst := perMin / 10
	if burst < 1 {
		burst = 1
	}
	return burst
}

// RateLimit throttles requests per client IP using token buckets sized from
// the stored security settings. Requests that carry no credential at all get
// the tighter auth_rate_limit_per_min bucket; limit edits apply to live
// buckets as the policy cache refreshes. A non-positive limit disables the
// check for that class.
func RateLimit(policy *SecurityPolicy) gin.HandlerFunc {
	registry := &limiterRegistry{entries: make(map[string]*limiterEntry)}
	return func(c *gin.Context) {
		st := policy.Current()

		perMin := st.RateLimitPerMin
		key := "key:" + c.ClientIP()
		if bearerToken(c) == "" {
			perMin = st.AuthRateLimit
			key = "anon:" + c.ClientIP()
		}
		if perMin <= 0 {
			c.Next()
			return
		}

		if !registry.get(key, perMin).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.NewResponse("rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
