package graphcbo

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for the estimators.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CatalogLookups         prometheus.Counter
	CacheHits              prometheus.Counter
	CacheMisses            prometheus.Counter
	Decompositions         prometheus.Counter
	Undecomposable         prometheus.Counter
	PreconditionViolations prometheus.Counter
	CanonicalOrderings     prometheus.Histogram
	Estimates              *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CatalogLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphcbo_catalog_lookups_total",
			Help: "Direct statistics catalog lookups issued by the estimators",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphcbo_catalog_cache_hits_total",
			Help: "Catalog cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphcbo_catalog_cache_misses_total",
			Help: "Catalog cache misses",
		}),
		Decompositions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphcbo_star_decompositions_total",
			Help: "Patterns estimated by star decomposition",
		}),
		Undecomposable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphcbo_undecomposable_patterns_total",
			Help: "Patterns too large for the catalog with no intersection vertex",
		}),
		PreconditionViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphcbo_precondition_violations_total",
			Help: "Caller defects recovered at a Safe boundary",
		}),
		CanonicalOrderings: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "graphcbo_canonical_orderings",
			Help:    "Candidate vertex orderings compared per canonicalization",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphcbo_estimates_total",
			Help: "Estimator calls by kind",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.CatalogLookups, m.CacheHits, m.CacheMisses,
			m.Decompositions, m.Undecomposable, m.PreconditionViolations,
			m.CanonicalOrderings, m.Estimates,
		)
	}
	return m
}

func (m *Metrics) catalogLookup() {
	if m != nil {
		m.CatalogLookups.Inc()
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) decomposed() {
	if m != nil {
		m.Decompositions.Inc()
	}
}

func (m *Metrics) undecomposable() {
	if m != nil {
		m.Undecomposable.Inc()
	}
}

func (m *Metrics) preconditionViolation() {
	if m != nil {
		m.PreconditionViolations.Inc()
	}
}

func (m *Metrics) canonicalized(orderings int) {
	if m != nil {
		m.CanonicalOrderings.Observe(float64(orderings))
	}
}

func (m *Metrics) estimate(kind string) {
	if m != nil {
		m.Estimates.WithLabelValues(kind).Inc()
	}
}
