package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rigctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigctl",
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Commands dispatched to rigs.",
		},
		[]string{"rig", "op", "outcome"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rigctl",
			Subsystem: "dispatch",
			Name:      "command_duration_seconds",
			Help:      "Rig command duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"rig", "op", "outcome"},
	)
	wsSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rigctl",
			Subsystem: "ws",
			Name:      "sessions",
			Help:      "Authenticated websocket sessions.",
		},
	)
	wsBroadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigctl",
			Subsystem: "ws",
			Name:      "broadcasts_total",
			Help:      "Events broadcast to websocket sessions.",
		},
		[]string{"kind"},
	)
	throttleRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rigctl",
			Subsystem: "throttle",
			Name:      "rejections_total",
			Help:      "Requests rejected by the throttle gate.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			dispatchTotal,
			dispatchDuration,
			wsSessions,
			wsBroadcasts,
			throttleRejections,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordDispatch(rig, op string, err error, duration time.Duration) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	dispatchTotal.WithLabelValues(rig, op, outcome).Inc()
	dispatchDuration.WithLabelValues(rig, op, outcome).Observe(duration.Seconds())
}

func SessionOpened() {
	RegisterMetrics()
	wsSessions.Inc()
}

func SessionClosed() {
	RegisterMetrics()
	wsSessions.Dec()
}

func RecordBroadcast(kind string) {
	RegisterMetrics()
	wsBroadcasts.WithLabelValues(kind).Inc()
}

func RecordThrottleRejection() {
	RegisterMetrics()
	throttleRejections.Inc()
}
