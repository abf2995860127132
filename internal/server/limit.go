package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterIdle is how long a client's bucket survives without requests.
	limiterIdle = 10 * time.Minute

	// limiterSweepEvery bounds how often allow scans for idle buckets.
	limiterSweepEvery = time.Minute
)

// keyedLimiter holds one token bucket per client address. Buckets idle for
// longer than limiterIdle are evicted.
type keyedLimiter struct {
	mu        sync.Mutex
	limits    map[string]*clientLimit
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(perSecond float64, burst int) *keyedLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &keyedLimiter{
		limits: make(map[string]*clientLimit),
		every:  rate.Limit(perSecond),
		burst:  max(burst, 1),
		now:    time.Now,
	}
}

func (k *keyedLimiter) allow(key string) bool {
	if k == nil {
		return true
	}
	now := k.now()

	k.mu.Lock()
	if now.Sub(k.lastSweep) >= limiterSweepEvery {
		k.sweep(now)
	}
	c, ok := k.limits[key]
	if !ok {
		c = &clientLimit{limiter: rate.NewLimiter(k.every, k.burst)}
		k.limits[key] = c
	}
	c.lastSeen = now
	k.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. Callers hold mu.
func (k *keyedLimiter) sweep(now time.Time) {
	k.lastSweep = now
	for key, c := range k.limits {
		if now.Sub(c.lastSeen) > limiterIdle {
			delete(k.limits, key)
		}
	}
}

func (k *keyedLimiter) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limits)
}

// rateLimit keys on r.RemoteAddr. Forwarding headers only affect it when
// Config.TrustProxy installs middleware.RealIP ahead of it.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the request's client address without its port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
