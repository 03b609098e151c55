package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Ingestion batches processed, by brand and result",
		},
		[]string{"brand", "result"},
	)

	ProductsInsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "products_inserted_total",
			Help: "New product rows inserted during ingestion",
		},
		[]string{"brand"},
	)

	DuplicatesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicates_dropped_total",
			Help: "Records dropped by in-batch deduplication",
		},
		[]string{"brand"},
	)

	MalformedDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malformed_dropped_total",
			Help: "Records dropped for missing required fields",
		},
		[]string{"brand"},
	)
)

func Register() {
	prometheus.MustRegister(
		IngestBatchesTotal,
		ProductsInsertedTotal,
		DuplicatesDroppedTotal,
		MalformedDroppedTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
