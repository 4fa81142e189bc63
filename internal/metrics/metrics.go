// Package metrics exposes the Prometheus collectors for the player service.
// Labels are kept to small closed sets; video ids and urls never become labels.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PlayerResolutionsTotal counts resolved player settings by render mode.
	PlayerResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgallery_player_resolutions_total",
		Help: "Total number of player settings resolutions, by render mode.",
	}, []string{"mode"})

	// AccessDecisionsTotal counts access evaluations by outcome and reason.
	AccessDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgallery_access_decisions_total",
		Help: "Total number of access control decisions, by outcome and reason.",
	}, []string{"allowed", "reason"})

	// ProviderLookupsTotal counts third-party metadata lookups.
	ProviderLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgallery_provider_lookups_total",
		Help: "Total number of provider metadata lookups, by provider and result (hit, miss, error).",
	}, []string{"provider", "result"})

	// ProviderLookupDuration observes remote round trips, cache hits excluded.
	ProviderLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidgallery_provider_lookup_duration_seconds",
		Help:    "Latency of provider metadata round trips.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider"})

	// ThumbnailImportsTotal counts thumbnail import jobs by result.
	ThumbnailImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgallery_thumbnail_imports_total",
		Help: "Total number of thumbnail import jobs, by result.",
	}, []string{"result"})

	// VideoEventsTotal counts views, likes and dislikes.
	VideoEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgallery_video_events_total",
		Help: "Total number of recorded video events, by kind.",
	}, []string{"event"})

	// RateLimitedTotal counts requests rejected by the per-IP limiter.
	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgallery_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting, by route.",
	}, []string{"route"})
)

// RecordResolution increments the resolution counter for mode.
func RecordResolution(mode string) {
	PlayerResolutionsTotal.WithLabelValues(mode).Inc()
}

// RecordAccessDecision increments the access decision counter.
func RecordAccessDecision(allowed bool, reason string) {
	AccessDecisionsTotal.WithLabelValues(strconv.FormatBool(allowed), reason).Inc()
}

// RecordProviderLookup increments the lookup counter with result hit, miss or error.
func RecordProviderLookup(provider, result string) {
	ProviderLookupsTotal.WithLabelValues(provider, result).Inc()
}

// ObserveProviderLatency records the duration of a remote lookup.
func ObserveProviderLatency(provider string, d time.Duration) {
	ProviderLookupDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordThumbnailImport increments the import counter.
func RecordThumbnailImport(result string) {
	ThumbnailImportsTotal.WithLabelValues(result).Inc()
}

// RecordVideoEvent increments the counter for view, like or dislike.
func RecordVideoEvent(event string) {
	VideoEventsTotal.WithLabelValues(event).Inc()
}

// RecordRateLimited increments the rate limit rejection counter.
func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
