// Package metrics holds the process-wide prometheus collectors of the mirror daemon.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	shopifyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_mirror_shopify_requests_total",
		Help: "Requests sent to the Shopify API by method and response status",
	}, []string{"method", "status"})
	shopifyRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_mirror_shopify_retries_total",
		Help: "Requests retried after a rate limit or transport failure",
	})
	snapshotItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_mirror_snapshot_items_total",
		Help: "Items stored by backup runs by type",
	}, []string{"type"})
	snapshotBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_mirror_snapshot_bytes_total",
		Help: "Payload and blob bytes stored by backup runs",
	})
	imageDownloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_mirror_image_download_failures_total",
		Help: "Image downloads skipped during backups",
	})
	restoreOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_mirror_restore_items_total",
		Help: "Restore attempts by type and outcome",
	}, []string{"type", "status"})
	jobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_mirror_jobs_total",
		Help: "Finished jobs by kind and terminal status",
	}, []string{"kind", "status"})
)

// ReportRequest records one HTTP round trip. Status 0 marks a transport failure.
func ReportRequest(method string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	shopifyRequests.WithLabelValues(method, label).Inc()
}

func ReportRetry() {
	shopifyRetries.Inc()
}

func ReportSnapshotItem(itemType string, size int64) {
	snapshotItems.WithLabelValues(itemType).Inc()
	snapshotBytes.Add(float64(size))
}

func ReportImageDownloadFailure() {
	imageDownloadFailures.Inc()
}

func ReportRestore(itemType string, status string) {
	restoreOutcomes.WithLabelValues(itemType, status).Inc()
}

func ReportJob(kind string, status string) {
	jobs.WithLabelValues(kind, status).Inc()
}
