// Package metrics documents the Prometheus metrics exposed by the sync
// service. All collectors are defined via promauto in the package they
// instrument to keep instrumentation next to the code it measures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// Collectors register themselves automatically via promauto.
var Registry = prometheus.DefaultRegisterer

// Metrics Reference
//
// Rate Limiter (pkg/ratelimit):
//   - sync_rate_limiter_tasks_total (Counter): tasks accepted by the limiter
//   - sync_rate_limiter_tasks_abandoned_total (Counter): tasks cancelled while queued
//   - sync_rate_limiter_queue_wait_seconds (Histogram): submission-to-completion wait
//
// Pagination (pkg/pagination):
//   - sync_pages_fetched_total{source} (Counter): pages fetched per paged source
//
// Sheets (pkg/sheets):
//   - sync_sheet_operations_total{op, status} (Counter): operations by op and HTTP status
//   - sync_sheet_operation_duration_seconds{op} (Histogram): operation latency
//
// Marketplace (pkg/marketplace):
//   - sync_marketplace_requests_total{endpoint, status} (Counter): requests by endpoint
//
// Pipelines (pkg/pipeline):
//   - sync_pipeline_runs_total{pipeline, status} (Counter): runs by outcome
//   - sync_pipeline_run_duration_seconds{pipeline} (Histogram): run duration
//   - sync_rows_written_total{destination} (Counter): projection rows written
//   - sync_visit_fetch_skips_total (Counter): per-item visit fetches skipped
//
// Example queries:
//
//   # Pipeline failure rate
//   rate(sync_pipeline_runs_total{status="error"}[1h])
//
//   # P95 sheet write latency
//   histogram_quantile(0.95, rate(sync_sheet_operation_duration_seconds_bucket{op="append"}[5m]))
//
//   # Items skipped during visit collection
//   increase(sync_visit_fetch_skips_total[1d])
