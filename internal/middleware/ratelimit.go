package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// ipLimiter counts requests per client IP in fixed windows. Expired windows
// are swept lazily so the map doesn't grow with one-off callers.
type ipLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	per     time.Duration
	swept   time.Time
}

func newIPLimiter(limit int, per time.Duration) *ipLimiter {
	return &ipLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		per:     per,
	}
}

// take reports whether the request fits the window, and when it doesn't,
// how long until the window resets.
func (l *ipLimiter) take(ip string) (bool, time.Duration) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.per {
		for key, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, key)
			}
		}
		l.swept = now
	}

	w, ok := l.windows[ip]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.per)}
		l.windows[ip] = w
	}
	if w.count >= l.limit {
		return false, time.Until(w.resetAt)
	}
	w.count++
	return true, 0
}

// RateLimit caps requests per client IP within a rolling window. It guards
// the enqueue endpoint; the admission controller inside the orchestrator is
// what actually bounds concurrent generation work.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	limiter := newIPLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryIn := limiter.take(ClientIP(r))
			if !ok {
				seconds := int(retryIn.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
