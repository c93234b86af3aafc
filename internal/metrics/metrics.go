// Package metrics collects operational metrics for renders and index reloads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector receives render and index events.
type Collector interface {
	// RecordRender is called after each mosaic render with the number of tiles queried.
	RecordRender(indexType string, tiles int, duration time.Duration, err error)
	// RecordIndexLoad is called after an index is loaded or reloaded.
	RecordIndexLoad(indexType string, size int, err error)
	// RecordRejected is called when a request is refused before rendering.
	RecordRejected(reason string)
}

// NoopCollector discards everything.
type NoopCollector struct{}

func (NoopCollector) RecordRender(string, int, time.Duration, error) {}
func (NoopCollector) RecordIndexLoad(string, int, error)             {}
func (NoopCollector) RecordRejected(string)                          {}

// Prometheus is a Collector backed by Prometheus metrics.
type Prometheus struct {
	renderLatency *prometheus.HistogramVec
	renders       *prometheus.CounterVec
	tiles         prometheus.Counter
	indexSize     *prometheus.GaugeVec
	indexLoads    *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// NewPrometheus registers the tessera metrics on reg. A nil reg uses a fresh registry.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prometheus{
		renderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tessera_render_duration_seconds",
			Help:    "Latency of mosaic renders",
			Buckets: prometheus.DefBuckets,
		}, []string{"index", "status"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tessera_renders_total",
			Help: "Total mosaic renders",
		}, []string{"index", "status"}),
		tiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tessera_tiles_queried_total",
			Help: "Total tiles looked up in the index",
		}),
		indexSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tessera_index_size_tiles",
			Help: "Number of corpus tiles in the loaded index",
		}, []string{"index"}),
		indexLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tessera_index_loads_total",
			Help: "Index loads and hot reloads",
		}, []string{"status"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tessera_requests_rejected_total",
			Help: "Requests refused before rendering",
		}, []string{"reason"}),
		gatherer: reg,
	}
	reg.MustRegister(p.renderLatency, p.renders, p.tiles, p.indexSize, p.indexLoads, p.rejected)
	return p
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *Prometheus) RecordRender(indexType string, tiles int, d time.Duration, err error) {
	p.renderLatency.WithLabelValues(indexType, status(err)).Observe(d.Seconds())
	p.renders.WithLabelValues(indexType, status(err)).Inc()
	p.tiles.Add(float64(tiles))
}

func (p *Prometheus) RecordIndexLoad(indexType string, size int, err error) {
	p.indexLoads.WithLabelValues(status(err)).Inc()
	if err == nil {
		p.indexSize.Reset()
		p.indexSize.WithLabelValues(indexType).Set(float64(size))
	}
}

func (p *Prometheus) RecordRejected(reason string) {
	p.rejected.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
