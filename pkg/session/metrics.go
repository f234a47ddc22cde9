package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// mutationTotal counts executed intents by kind and outcome.
	mutationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hobnob_mutation_total",
			Help: "Total number of mutation intents processed",
		},
		[]string{"kind", "outcome"},
	)

	// refreshTotal counts canonical snapshot refreshes.
	refreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hobnob_refresh_total",
			Help: "Total number of canonical graph refreshes applied",
		},
	)
)

func init() {
	prometheus.MustRegister(mutationTotal)
	prometheus.MustRegister(refreshTotal)
}
