package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion pipeline Prometheus metrics.
var (
	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vocd",
			Name:      "ingest_rows_total",
			Help:      "Rows processed by the ingestion pipeline",
		},
		[]string{"outcome"}, // "stored" / "skipped"
	)

	IngestSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vocd",
			Name:      "ingest_skips_total",
			Help:      "Rows skipped by the ingestion pipeline, by reason",
		},
		[]string{"reason"}, // "validation" / "embed_failed" / "store_failed"
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vocd",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Wall time per ingestion batch",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestRowsTotal)
	prometheus.MustRegister(IngestSkipsTotal)
	prometheus.MustRegister(IngestBatchDuration)
	ingestMetricsRegistered = true
}
