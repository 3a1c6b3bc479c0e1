package httpx

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type window struct {
	start time.Time
	count int
}

// RateLimitMiddleware allows each caller, keyed by client IP, at most limit
// requests per fixed window. A window opens on the caller's first request and
// its count resets once the window has elapsed.
type RateLimitMiddleware struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	logger  *slog.Logger
	// throttled samples the warning logged for rejected requests.
	throttled rate.Sometimes
	stop      chan struct{}
	once      sync.Once
}

func NewRateLimitMiddleware(limit int, period time.Duration, logger *slog.Logger) *RateLimitMiddleware {
	if limit < 1 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	rl := &RateLimitMiddleware{
		windows:   make(map[string]*window),
		limit:     limit,
		period:    period,
		now:       time.Now,
		logger:    logger,
		throttled: rate.Sometimes{First: 1, Interval: 10 * time.Second},
		stop:      make(chan struct{}),
	}

	go rl.cleanupWindows()
	return rl
}

// Close stops the background cleanup.
func (rl *RateLimitMiddleware) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimitMiddleware) cleanupWindows() {
	interval := rl.period
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for key, win := range rl.windows {
				if now.Sub(win.start) >= rl.period {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// take counts one request for key. It reports whether the request fits in
// the current window, how many remain, and how long until the window resets.
func (rl *RateLimitMiddleware) take(key string) (bool, int, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.windows[key]
	if !ok || now.Sub(win.start) >= rl.period {
		win = &window{start: now}
		rl.windows[key] = win
	}
	reset := win.start.Add(rl.period).Sub(now)
	if win.count >= rl.limit {
		return false, 0, reset
	}
	win.count++
	return true, rl.limit - win.count, reset
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		allowed, remaining, reset := rl.take(key)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			rl.throttled.Do(func() {
				rl.logger.Warn("rate limit exceeded", "client", key, "path", r.URL.Path)
			})
			retryAfter := int(math.Ceil(reset.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
