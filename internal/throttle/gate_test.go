package throttle

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/rigctl/internal/envelope"
	"github.com/danmuck/rigctl/internal/testutil/testlog"
)

func TestAllowExhaustsBudgetThenResets(t *testing.T) {
	testlog.Start(t)
	g := NewGate(3, time.Minute)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if !g.Allow("10.0.0.1") {
			t.Fatalf("request %d within budget rejected", i+1)
		}
	}
	if g.Allow("10.0.0.1") {
		t.Fatalf("request past budget admitted")
	}

	clock = clock.Add(time.Minute)
	if !g.Allow("10.0.0.1") {
		t.Fatalf("new window must reset the budget")
	}
}

func TestAllowTracksClientsIndependently(t *testing.T) {
	testlog.Start(t)
	g := NewGate(1, time.Minute)
	if !g.Allow("10.0.0.1") || g.Allow("10.0.0.1") {
		t.Fatalf("first client budget wrong")
	}
	if !g.Allow("10.0.0.2") {
		t.Fatalf("second client must have its own budget")
	}
}

func TestPruneDropsLapsedWindows(t *testing.T) {
	testlog.Start(t)
	g := NewGate(1, time.Minute)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	g.Allow("stale")
	clock = clock.Add(2 * time.Minute)
	g.mu.Lock()
	g.prune(clock)
	size := len(g.clients)
	g.mu.Unlock()
	if size != 0 {
		t.Fatalf("lapsed entries must prune, %d left", size)
	}
}

func TestMiddlewareRejectsWithEnvelope(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	g := NewGate(1, time.Minute)

	router := gin.New()
	router.GET("/api/rigs", g.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i, wantStatus := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/rigs", nil)
		req.RemoteAddr = "10.9.8.7:40000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != wantStatus {
			t.Fatalf("request %d: status got %d want %d", i+1, w.Code, wantStatus)
		}
		if wantStatus == http.StatusTooManyRequests {
			var env envelope.Envelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.Error == nil || env.Error.Code != envelope.CodeRateLimitExceeded {
				t.Fatalf("envelope code: %+v", env.Error)
			}
		}
	}
}
