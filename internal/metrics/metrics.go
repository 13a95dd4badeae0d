// Package metrics exposes Prometheus collectors for a scraping run.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "expert_scout"

// Stages a candidate passes through during a run.
const (
	StageChecked   = "checked"
	StageCandidate = "candidate"
	StageSaved     = "saved"
)

// Metrics groups the run collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests   *prometheus.CounterVec
	waitSeconds   *prometheus.HistogramVec
	candidates    *prometheus.CounterVec
	recordsSaved  *prometheus.CounterVec
	wikipediaRows *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "GitHub API calls, labeled by endpoint and classified outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		waitSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wait_seconds",
				Help:      "Time spent pausing before or after API calls, labeled by reason.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"reason"},
		),
		candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Profiles seen per domain, labeled by pipeline stage.",
			},
			[]string{"domain", "stage"},
		),
		recordsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_saved_total",
				Help:      "Expert records upserted, labeled by domain and external link presence.",
			},
			[]string{"domain", "has_link"},
		),
		wikipediaRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wikipedia_entries_total",
				Help:      "Entries collected from Wikipedia category pages, labeled by domain.",
			},
			[]string{"domain"},
		),
	}

	for _, c := range []prometheus.Collector{m.apiRequests, m.waitSeconds, m.candidates, m.recordsSaved, m.wikipediaRows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) ObserveRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) ObserveWait(reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.waitSeconds.WithLabelValues(reason).Observe(d.Seconds())
}

func (m *Metrics) ObserveStage(domain, stage string) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(domain, stage).Inc()
}

func (m *Metrics) ObserveSaved(domain string, hasLink bool) {
	if m == nil {
		return
	}
	m.recordsSaved.WithLabelValues(domain, strconv.FormatBool(hasLink)).Inc()
	m.candidates.WithLabelValues(domain, StageSaved).Inc()
}

func (m *Metrics) ObserveWikipedia(domain string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.wikipediaRows.WithLabelValues(domain).Add(float64(n))
}
