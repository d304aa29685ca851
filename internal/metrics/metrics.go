// Package metrics holds the Prometheus collectors for the risk engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "riskboard"
	subsystem = "risks"
)

var (
	// ItemsCreated counts risk items filed. Labels: creation_type
	ItemsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "items_created_total",
		Help:      "Risk items filed, by creation type",
	}, []string{"creation_type"})

	// Duplicates counts creations rejected because an active item already exists.
	Duplicates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "duplicates_total",
		Help:      "Risk item creations rejected as duplicates",
	})

	// DomainTransitions counts domain risk status changes. Labels: from, to
	DomainTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "domain_transitions_total",
		Help:      "Domain risk status transitions",
	}, []string{"from", "to"})

	Recalculations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "recalculations_total",
		Help:      "Domain risk aggregate recalculations",
	})

	// DomainPriorityScore observes the aggregate score after each recalculation.
	DomainPriorityScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "domain_priority_score",
		Help:      "Distribution of domain risk priority scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
)
