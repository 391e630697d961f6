package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
)

var (
	rowsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "ingestion",
		Name:      "rows_total",
		Help:      "Total number of resident rows reconciled, broken down by outcome status.",
	}, []string{"status"})

	batchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "ingestion",
		Name:      "batches_total",
		Help:      "Total number of uploads processed, broken down by kind and result.",
	}, []string{"kind", "result"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "registry",
		Subsystem: "ingestion",
		Name:      "batch_duration_seconds",
		Help:      "Wall time spent on one upload.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"kind"})

	ordersAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "orders",
		Name:      "appended_total",
		Help:      "Total number of outer orders appended from uploads.",
	})

	streetsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "streets",
		Name:      "created_total",
		Help:      "Total number of streets created during ingestion.",
	})
)

func recordRow(status resident.Status) {
	rowsReconciled.WithLabelValues(string(status)).Inc()
}

func recordBatch(kind string, err error, seconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	batchesProcessed.WithLabelValues(kind, result).Inc()
	batchDuration.WithLabelValues(kind).Observe(seconds)
}
