package middleware

import (
	"net/http"
	"sync"
	"time"

	"stocktrack/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Rate limiting ─────────────────────────────────────────────────────────────
// Fixed-window counters per client IP, kept in process memory. Good enough for
// a single instance; a multi-instance deployment would move this into Redis.

type ipWindow struct {
	mu    sync.Mutex
	count int
	until time.Time
}

type ipLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
	limit   int
	window  time.Duration
	message string
}

func newIPLimiter(limit int, window time.Duration, message string) *ipLimiter {
	l := &ipLimiter{
		windows: make(map[string]*ipWindow),
		limit:   limit,
		window:  window,
		message: message,
	}
	registerForPurge(l)
	return l
}

// allow counts a request against the IP's current window, opening a new
// window when the previous one has lapsed.
func (l *ipLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	w, ok := l.windows[ip]
	if !ok {
		w = &ipWindow{}
		l.windows[ip] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.After(w.until) {
		w.count = 0
		w.until = now.Add(l.window)
	}
	w.count++
	return w.count <= l.limit, w.until
}

func (l *ipLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, until := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", until.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// purge drops windows that have already lapsed so IPs that never return do
// not accumulate forever.
func (l *ipLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for ip, w := range l.windows {
		w.mu.Lock()
		expired := now.After(w.until)
		w.mu.Unlock()
		if expired {
			delete(l.windows, ip)
			dropped++
		}
	}
	return dropped
}

// LoginRateLimiter caps login attempts at 20 per minute per IP to slow down
// credential stuffing.
func LoginRateLimiter() gin.HandlerFunc {
	return loginLimiter.handler()
}

// RateLimiter caps general API traffic per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newIPLimiter(limit, window, "too many requests, retry shortly").handler()
}

var loginLimiter = newIPLimiter(20, time.Minute, "too many login attempts, retry in 1 minute")

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

var (
	purgeMu      sync.Mutex
	purgeTargets []*ipLimiter
	purgeStarted bool
)

func registerForPurge(l *ipLimiter) {
	purgeMu.Lock()
	defer purgeMu.Unlock()
	purgeTargets = append(purgeTargets, l)
	if !purgeStarted {
		purgeStarted = true
		go purgeLoop()
	}
}

func purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		total := 0

		purgeMu.Lock()
		targets := make([]*ipLimiter, len(purgeTargets))
		copy(targets, purgeTargets)
		purgeMu.Unlock()

		for _, l := range targets {
			total += l.purge(now)
		}
		if total > 0 {
			log.Debug().Int("entries_purged", total).Msg("rate limiter windows purged")
		}
	}
}
