package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hslindex_documents_upserted_total",
		Help: "Documents inserted or replaced across all indexes.",
	})
	documentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hslindex_documents_deleted_total",
		Help: "Documents removed across all indexes.",
	})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hslindex_search_duration_seconds",
		Help:    "Latency of index searches.",
		Buckets: prometheus.DefBuckets,
	})
)
