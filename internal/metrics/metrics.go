// Package metrics holds the Prometheus instruments of the layout service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medusa_canvas_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medusa_canvas_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Overlays
	OverlayMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medusa_canvas_overlay_mutations_total",
			Help: "Overlay creates, updates and deletes that reached the database",
		},
		[]string{"operation"},
	)

	// Previews
	PreviewCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medusa_canvas_preview_cache_hits_total",
			Help: "Previews served from the redis cache",
		},
	)

	PreviewCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medusa_canvas_preview_cache_misses_total",
			Help: "Cacheable previews that had to be rendered",
		},
	)

	PreviewRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medusa_canvas_preview_render_duration_seconds",
			Help:    "Time to render and encode a layout preview",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// TV notifications
	LayoutNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medusa_canvas_layout_notifications_total",
			Help: "overlays_updated messages published to paired screens",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one finished request. route is the gin route
// template, not the raw path.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOverlayMutation counts a create, update or delete.
func RecordOverlayMutation(operation string) {
	OverlayMutations.WithLabelValues(operation).Inc()
}

func RecordPreviewCache(hit bool) {
	if hit {
		PreviewCacheHits.Inc()
	} else {
		PreviewCacheMisses.Inc()
	}
}

func RecordPreviewRender(duration time.Duration) {
	PreviewRenderDuration.Observe(duration.Seconds())
}

func RecordLayoutNotification(err error) {
	if err != nil {
		LayoutNotifications.WithLabelValues("error").Inc()
		return
	}
	LayoutNotifications.WithLabelValues("sent").Inc()
}
