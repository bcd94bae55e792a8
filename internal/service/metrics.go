package service

import "github.com/VictoriaMetrics/metrics"

var (
	pagesFetched      = metrics.NewCounter(`explorer_pages_fetched_total`)
	pageFetchFailures = metrics.NewCounter(`explorer_page_fetch_failures_total`)
	pageFetchDuration = metrics.NewHistogram(`explorer_page_fetch_duration_seconds`)
	receiptsFetched   = metrics.NewCounter(`explorer_receipts_fetched_total`)
	blocksPublished   = metrics.NewCounter(`explorer_blocks_published_total`)
	publishFailures   = metrics.NewCounter(`explorer_publish_failures_total`)
)
