package tilescene

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds one layer's collectors on a private registry so several
// layers (and tests) never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	Tiles            prometheus.Gauge
	RequestsActive   prometheus.Gauge
	RequestsQueued   prometheus.Gauge
	RequestsDone     prometheus.Counter
	FetchFailures    prometheus.Counter
	StaleResponses   prometheus.Counter
	FeatureErrors    prometheus.Counter
	BuildingsBuilt   prometheus.Counter
	BuildingsDeduped prometheus.Counter
	DedupEntries     prometheus.Gauge
	Frames           prometheus.Counter
	RenderErrors     prometheus.Counter
}

func NewMetrics(layer string) *Metrics {
	labels := prometheus.Labels{"layer": layer}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tilescene", Name: name, Help: help, ConstLabels: labels,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tilescene", Name: name, Help: help, ConstLabels: labels,
		})
	}

	m := &Metrics{
		Registry:         prometheus.NewRegistry(),
		Tiles:            gauge("tiles", "Tiles currently tracked"),
		RequestsActive:   gauge("requests_active", "Tile requests in flight"),
		RequestsQueued:   gauge("requests_queued", "Tile requests waiting for a slot"),
		RequestsDone:     counter("requests_completed_total", "Tile requests that finished, successfully or not"),
		FetchFailures:    counter("fetch_failures_total", "Tile metadata or asset fetches that failed"),
		StaleResponses:   counter("stale_responses_total", "Responses discarded because their tile had exited"),
		FeatureErrors:    counter("feature_errors_total", "Features skipped because their geometry was unusable"),
		BuildingsBuilt:   counter("buildings_built_total", "Building meshes built"),
		BuildingsDeduped: counter("buildings_deduped_total", "Building meshes skipped because another tile owns them"),
		DedupEntries:     gauge("dedup_entries", "Footprint identifiers in the dedup index"),
		Frames:           counter("frames_total", "Frames rendered"),
		RenderErrors:     counter("render_errors_total", "Frames the renderer rejected"),
	}
	m.Registry.MustRegister(
		m.Tiles, m.RequestsActive, m.RequestsQueued, m.RequestsDone,
		m.FetchFailures, m.StaleResponses, m.FeatureErrors,
		m.BuildingsBuilt, m.BuildingsDeduped, m.DedupEntries,
		m.Frames, m.RenderErrors,
	)
	return m
}
