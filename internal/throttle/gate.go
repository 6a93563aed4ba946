// Package throttle enforces a fixed-window request budget per client.
package throttle

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/rigctl/internal/envelope"
	"github.com/danmuck/rigctl/internal/observability"
)

const (
	DefaultLimit  = 120
	DefaultWindow = time.Minute

	maxTrackedClients = 4096
)

type entry struct {
	start time.Time
	count int
}

// Gate admits at most limit requests per key within each window. Windows
// are fixed: the first request stamps the start, and the counter resets
// when a request arrives past the window end.
type Gate struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*entry
}

func NewGate(limit int, window time.Duration) *Gate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*entry),
	}
}

// Allow reports whether key has budget left in its current window.
func (g *Gate) Allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	e, ok := g.clients[key]
	if !ok || now.Sub(e.start) >= g.window {
		if len(g.clients) >= maxTrackedClients {
			g.prune(now)
		}
		g.clients[key] = &entry{start: now, count: 1}
		return true
	}
	if e.count >= g.limit {
		return false
	}
	e.count++
	return true
}

// prune drops entries whose window has lapsed; callers hold the lock.
func (g *Gate) prune(now time.Time) {
	for key, e := range g.clients {
		if now.Sub(e.start) >= g.window {
			delete(g.clients, key)
		}
	}
}

// Middleware rejects over-budget requests with a rate-limit envelope
// before any token check runs.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Allow(c.ClientIP()) {
			observability.RecordThrottleRejection()
			envelope.Abort(c, http.StatusTooManyRequests, envelope.CodeRateLimitExceeded, "request budget exhausted", nil)
			return
		}
		c.Next()
	}
}
