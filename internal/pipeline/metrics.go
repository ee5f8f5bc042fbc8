package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes pipeline counters on the default /metrics endpoint.
type Metrics struct {
	PassesTotal     prometheus.Counter
	ClassifiedTotal *prometheus.CounterVec
	RepairedTotal   prometheus.Counter
	CacheHitsTotal  prometheus.Counter
	ViolationsTotal *prometheus.CounterVec
	HashMismatches  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PassesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "remediation_passes_total",
			Help: "Completed remediation passes.",
		}),
		ClassifiedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remediation_classified_total",
			Help: "Failing questions routed to a repair strategy.",
		}, []string{"strategy"}),
		RepairedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "remediation_repaired_total",
			Help: "Replacement questions produced and persisted.",
		}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "remediation_repair_cache_hits_total",
			Help: "Repairs satisfied from the Redis repair cache.",
		}),
		ViolationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remediation_violations_total",
			Help: "Record-level violations by code.",
		}, []string{"code"}),
		HashMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "remediation_hash_mismatches_total",
			Help: "Export rows whose content drifted since QC approval.",
		}),
	}
}
