// Package metrics exposes engine activity as Prometheus collectors on a
// private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oarkflow/segtag/nlp/morphology"
)

// Metrics implements morphology.Observer.
type Metrics struct {
	registry       *prometheus.Registry
	analyses       prometheus.Counter
	repairs        *prometheus.CounterVec
	bioRejections  *prometheus.CounterVec
	affixesPerWord prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "segtag_analyses_total",
			Help: "Total number of words segmented.",
		}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segtag_stem_repairs_total",
			Help: "Stem repairs by outcome.",
		}, []string{"outcome"}),
		bioRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segtag_bio_rejections_total",
			Help: "BIO encode requests rejected by reason.",
		}, []string{"reason"}),
		affixesPerWord: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "segtag_affixes_per_word",
			Help:    "Number of affixes stripped per word.",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
		}),
	}
	m.registry.MustRegister(
		m.analyses, m.repairs, m.bioRejections, m.affixesPerWord,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveAnalysis(r morphology.Result) {
	m.analyses.Inc()
	m.affixesPerWord.Observe(float64(r.Complexity))
	if r.Repair != morphology.RepairNone {
		m.repairs.WithLabelValues(r.Repair.String()).Inc()
	}
}

// BIORejected counts a span set refused before encoding.
func (m *Metrics) BIORejected(reason string) {
	m.bioRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
