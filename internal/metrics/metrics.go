// Package metrics defines the prometheus collectors for the map server.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joeblew999/plat-map/internal/feature"
	"github.com/joeblew999/plat-map/internal/service"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	LayersAdded    prometheus.Counter
	LayersDeleted  prometheus.Counter
	RowsSkipped    prometheus.Counter
	UploadsFailed  *prometheus.CounterVec
	ActiveFeatures prometheus.Gauge
	MapClients     prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LayersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platmap", Name: "layers_added_total",
			Help: "Layers added to the store.",
		}),
		LayersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platmap", Name: "layers_deleted_total",
			Help: "Layers deleted from the store.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platmap", Name: "rows_skipped_total",
			Help: "Rows or features dropped by validation.",
		}),
		UploadsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platmap", Name: "uploads_failed_total",
			Help: "Uploads rejected with a format error.",
		}, []string{"format"}),
		ActiveFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "platmap", Name: "active_features",
			Help: "Features in the merged active set.",
		}),
		MapClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "platmap", Name: "map_clients",
			Help: "Connected map streams.",
		}),
	}
	reg.MustRegister(
		m.LayersAdded, m.LayersDeleted, m.RowsSkipped, m.UploadsFailed,
		m.ActiveFeatures, m.MapClients,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Listener keeps the layer counters and the active feature gauge in step
// with the store.
func (m *Metrics) Listener() service.Listener {
	return func(snap service.Snapshot) {
		switch snap.Op {
		case service.OpAdd:
			m.LayersAdded.Inc()
		case service.OpDelete:
			m.LayersDeleted.Inc()
		}
		m.ActiveFeatures.Set(float64(len(snap.Active())))
	}
}

// ObserveImport counts skipped rows and uploads rejected with a format error.
func (m *Metrics) ObserveImport(format feature.Format, skipped int, err error) {
	m.RowsSkipped.Add(float64(skipped))
	if err != nil && !errors.Is(err, service.ErrNoFeatures) {
		label := string(format)
		if label == "" {
			label = "unknown"
		}
		m.UploadsFailed.WithLabelValues(label).Inc()
	}
}
