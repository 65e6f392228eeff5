package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limited actions.
const (
	ActionUpload   = "upload"
	ActionInsights = "insights"
)

// Limit allows Requests per Window for one client and action. Requests <= 0
// disables the limit.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits are the per-IP budgets for the API actions.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		ActionUpload:   {Requests: 5, Window: time.Hour},
		ActionInsights: {Requests: 3, Window: time.Hour},
	}
}

// Decision is the outcome of a limiter check. Remaining is -1 for actions
// without a limit.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type clientKey struct {
	ip     string
	action string
}

// clientLimiter tracks a per-client token bucket and when it was last seen.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces per client IP, per action token buckets. Each bucket
// holds Requests tokens and refills them evenly over Window.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	clients map[clientKey]*clientLimiter
	now     func() time.Time
}

// NewLimiter builds a limiter for the given actions.
func NewLimiter(limits map[string]Limit) *Limiter {
	cp := make(map[string]Limit, len(limits))
	for k, v := range limits {
		cp[k] = v
	}
	return &Limiter{limits: cp, clients: make(map[clientKey]*clientLimiter), now: time.Now}
}

// SetClock overrides the time source.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Allow consumes one request for ip and action when the budget permits.
func (l *Limiter) Allow(ip, action string) Decision {
	lim, ok := l.limits[action]
	if !ok || lim.Requests <= 0 || lim.Window <= 0 {
		return Decision{Allowed: true, Remaining: -1}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	key := clientKey{ip: ip, action: action}
	cl, ok := l.clients[key]
	if !ok {
		every := lim.Window / time.Duration(lim.Requests)
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(every), lim.Requests)}
		l.clients[key] = cl
	}
	cl.lastSeen = now

	res := cl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return Decision{Allowed: false, RetryAfter: lim.Window}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}
	}
	remaining := int(math.Floor(cl.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// Sweep forgets clients idle for longer than maxIdle and returns how many
// were dropped.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, cl := range l.clients {
		if now.Sub(cl.lastSeen) > maxIdle {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// Run sweeps idle clients every interval until ctx is done. A non-positive
// interval sweeps once a minute.
func (l *Limiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep(maxIdle)
		}
	}
}

// Middleware rejects requests over the action budget with 429 and a JSON
// body. ipFunc resolves the client address; nil means RemoteAddr only.
func (l *Limiter) Middleware(action string, ipFunc func(*http.Request) string) func(http.Handler) http.Handler {
	if ipFunc == nil {
		ipFunc = func(r *http.Request) string { return ClientIP(r, false) }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(ipFunc(r), action)
			if !d.Allowed {
				writeTooManyRequests(w, action, d.RetryAfter)
				return
			}
			if d.Remaining >= 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client address. With trustProxy the first
// X-Forwarded-For hop wins, then X-Real-IP; otherwise only RemoteAddr is
// used so clients cannot spoof their way past the limiter.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
			return xr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, action string, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":               "Rate limit exceeded",
		"action":              action,
		"retry_after_seconds": secs,
		"message":             fmt.Sprintf("Too many %s requests. Please try again in %d minutes.", action, secs/60),
	})
}
