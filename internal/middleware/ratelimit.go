package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
)

// RouteClass buckets endpoints into independent rate budgets.
type RouteClass string

const (
	ClassGeneral RouteClass = "general"
	ClassAuth    RouteClass = "auth"
	ClassUpload  RouteClass = "upload"
)

const reapInterval = time.Minute

type window struct {
	start time.Time
	count int
}

type budget struct {
	limit  int
	window time.Duration
}

// Limiter enforces fixed-window request budgets keyed by client IP and
// route class. Windows are tracked in memory; a background reaper drops
// expired entries so the map does not grow without bound.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	budgets map[RouteClass]budget

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// LimiterOption customises a Limiter, mainly for tests.
type LimiterOption func(*Limiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter builds a limiter from the configured per-class budgets and
// starts its reaper goroutine. Callers must Close it on shutdown.
func NewLimiter(cfg config.RateLimitConfig, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		budgets: map[RouteClass]budget{
			ClassGeneral: {limit: cfg.GeneralLimit, window: cfg.GeneralWindow},
			ClassAuth:    {limit: cfg.AuthLimit, window: cfg.AuthWindow},
			ClassUpload:  {limit: cfg.UploadLimit, window: cfg.UploadWindow},
		},
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.reapLoop()
	return l
}

// Close stops the reaper goroutine. Safe to call more than once.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// Middleware applies the limiter to every non-exempt request. Budget
// headers are written on allowed and rejected responses alike.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class, exempt := classify(r)
			if exempt {
				next.ServeHTTP(w, r)
				return
			}

			decision := l.take(clientIP(r), class)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.reset.Unix(), 10))

			if !decision.allowed {
				httpx.ErrorRateLimited(w, r, decision.retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type decision struct {
	allowed    bool
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// take consumes one slot from the caller's window, opening a fresh
// window when the previous one has elapsed.
func (l *Limiter) take(ip string, class RouteClass) decision {
	b := l.budgets[class]
	now := l.now()
	key := ip + "|" + string(class)

	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.windows[key]
	if !ok || now.Sub(win.start) >= b.window {
		win = &window{start: now}
		l.windows[key] = win
	}

	reset := win.start.Add(b.window)

	if win.count >= b.limit {
		return decision{
			allowed:    false,
			limit:      b.limit,
			remaining:  0,
			reset:      reset,
			retryAfter: reset.Sub(now),
		}
	}

	win.count++
	return decision{
		allowed:   true,
		limit:     b.limit,
		remaining: b.limit - win.count,
		reset:     reset,
	}
}

func (l *Limiter) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.reap()
		}
	}
}

// reap removes windows that expired for every class budget; entries
// older than the longest window cannot influence future decisions.
func (l *Limiter) reap() {
	now := l.now()

	var longest time.Duration
	for _, b := range l.budgets {
		if b.window > longest {
			longest = b.window
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, win := range l.windows {
		if now.Sub(win.start) >= longest {
			delete(l.windows, key)
		}
	}
}

// classify maps a request path to its budget class. Health endpoints are
// exempt so monitoring probes never starve real traffic.
func classify(r *http.Request) (RouteClass, bool) {
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/api/health"), strings.HasPrefix(path, "/api/system/health"):
		return ClassGeneral, true
	case strings.HasPrefix(path, "/api/login"), strings.HasPrefix(path, "/api/auth/"):
		return ClassAuth, false
	case strings.HasPrefix(path, "/api/resumes/upload"):
		return ClassUpload, false
	default:
		return ClassGeneral, false
	}
}

// clientIP prefers the leftmost X-Forwarded-For hop, falling back to the
// socket peer. chi's RealIP middleware normally rewrites RemoteAddr
// before this runs; the header check covers bare-handler tests.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
