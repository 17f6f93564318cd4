package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_links_created_total",
		Help: "Total number of payment links provisioned",
	})

	LinksReusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_links_reused_total",
		Help: "Total number of payment links recovered from checkpoints",
	})

	LinkFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_link_failures_total",
		Help: "Total number of rows that failed provisioning",
	}, []string{"stage"})

	BillingRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_request_latency_seconds",
		Help:    "Latency of billing API create calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	RowsMergedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rows_merged_total",
		Help: "Total number of catalog rows updated from link results",
	})

	RowsWithCheckoutURL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_rows_with_checkout_url",
		Help: "Catalog rows that have a checkout URL after the last merge",
	})

	RowsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_rows_total",
		Help: "Catalog rows seen by the last merge",
	})
)

// WriteMetrics dumps the default registry in the node_exporter textfile format
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
