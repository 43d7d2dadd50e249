package store

import "github.com/prometheus/client_golang/prometheus"

var (
	upsertCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "server",
		Name:      "rows_upserted_total",
		Help:      "Rows written through the row API, labeled by collection.",
	}, []string{"collection"})

	selectCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "server",
		Name:      "rows_selected_total",
		Help:      "Rows returned by select, labeled by collection.",
	}, []string{"collection"})

	failureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "server",
		Name:      "row_failures_total",
		Help:      "Failed row operations, labeled by collection and operation.",
	}, []string{"collection", "op"})
)

func init() {
	prometheus.MustRegister(upsertCounter, selectCounter, failureCounter)
}
