// Package metrics holds the Prometheus collectors for HTTP traffic and business events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promptionary"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "route"})

	// EntriesCreated counts successfully created entries.
	EntriesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "entries",
		Name:      "created_total",
		Help:      "Total number of entries created.",
	})

	// QuotaRejections counts entry creations refused by the free-tier cap.
	QuotaRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "entries",
		Name:      "quota_rejections_total",
		Help:      "Total number of entry creations rejected by the free-tier quota.",
	})

	// TranslationFailures counts failed calls to the translation service.
	TranslationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "translation",
		Name:      "failures_total",
		Help:      "Total number of failed translations.",
	})

	// CheckoutsCreated counts payment sessions by how the redirect URL was obtained.
	CheckoutsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "checkouts_total",
		Help:      "Total number of checkout sessions created.",
	}, []string{"source"})

	// Notifications counts reconciled gateway notifications by effective status.
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "notifications_total",
		Help:      "Total number of reconciled payment notifications.",
	}, []string{"status"})

	// TierUpgrades counts accounts moved to the premium tier.
	TierUpgrades = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "accounts",
		Name:      "tier_upgrades_total",
		Help:      "Total number of accounts upgraded to premium.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		EntriesCreated,
		QuotaRejections,
		TranslationFailures,
		CheckoutsCreated,
		Notifications,
		TierUpgrades,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched" // Keeps label cardinality bounded
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
