package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OWMAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwidget_owm_api_calls_total",
			Help: "Total weather service API calls",
		},
		[]string{"kind", "status"},
	)

	OWMAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherwidget_owm_api_latency_seconds",
			Help:    "Weather service API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwidget_readings_total",
			Help: "Total lookups applied to a display, by outcome",
		},
		[]string{"outcome"},
	)

	ClassifierMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwidget_classifier_misses_total",
			Help: "Readings whose condition had no matching art, by reason (empty or unrecognised)",
		},
		[]string{"reason"},
	)

	StaleResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherwidget_stale_results_total",
			Help: "Lookup results discarded because a newer lookup was issued",
		},
	)

	AssetsPreloaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weatherwidget_assets_preloaded",
			Help: "Number of image assets held in memory",
		},
	)

	AssetsMissing = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weatherwidget_assets_missing",
			Help: "Number of required image assets that could not be loaded",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weatherwidget_active_sessions",
			Help: "Number of live widget sessions",
		},
	)
)
