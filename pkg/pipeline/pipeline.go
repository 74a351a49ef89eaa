// Package pipeline sequences the fetch, reconcile and write stages of
// the spreadsheet sync flows as explicit state machines.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/melitools/sheet-sync/pkg/reconcile"
)

// State names one stage of a pipeline run.
type State string

const (
	StateFetchSources State = "fetch_sources"
	StateReconcile    State = "reconcile"
	StateEnrich       State = "enrich"
	StateWrite        State = "write"

	StateFetchOrders State = "fetch_orders"
	StateWriteOrders State = "write_orders"
	StateSettle      State = "settle"
	StateFetchVisits State = "fetch_visits"
	StateWriteVisits State = "write_visits"

	StateDone   State = "done"
	StateFailed State = "failed"
)

// FailurePolicy declares, per fetch call site, how individual failures
// are treated.
type FailurePolicy int

const (
	// Fatal aborts the stage and the whole pipeline on the first error.
	Fatal FailurePolicy = iota

	// SkipAndContinue logs the failure, drops the item and keeps going.
	SkipAndContinue
)

// Prometheus metrics for pipeline runs.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_pipeline_runs_total",
		Help: "Total pipeline runs by pipeline and outcome",
	}, []string{"pipeline", "status"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_pipeline_run_duration_seconds",
		Help:    "Pipeline run duration in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"pipeline"})

	rowsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_written_total",
		Help: "Total projection rows written by destination",
	}, []string{"destination"})

	visitSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_visit_fetch_skips_total",
		Help: "Total per-item visit fetches skipped after an error",
	})
)

// Source and destination ranges. The column order of each destination is
// the row order produced in package reconcile and package catalog.
const (
	listingIDRange    = "Lista!A2:A"
	productSrcRange   = "Productos!A2:F"
	inventorySrcRange = "Inventario!B2:P"
	salesSrcRange     = "Ventas30!A2:M"

	productDstRange   = "Productos!A2:F"
	inventoryDstRange = "Inventario!A2:E"
	catalogDstRange   = "asincatalogmappings!A2:M"
	salesDstRange     = "Ventas30!A2:C"

	ordersDstRange = "Ordenes180!A2:J"
	visitIDRange   = "VisitasMLM!A2:A"
	visitsDstRange = "VisitasMLM!C2:C"
)

// run tracks the state of one pipeline invocation.
type run struct {
	pipeline string
	state    State
	started  time.Time
	logger   zerolog.Logger
}

func newRun(pipeline string, logger zerolog.Logger) *run {
	return &run{
		pipeline: pipeline,
		started:  time.Now(),
		logger: logger.With().
			Str("pipeline", pipeline).
			Str("run_id", uuid.NewString()).
			Logger(),
	}
}

// enter transitions the run into the given state.
func (r *run) enter(s State) {
	r.state = s
	r.logger.Info().Str("state", string(s)).Msg("Pipeline state")
}

// fail moves the run to its terminal failed state and returns err.
func (r *run) fail(err error) error {
	r.state = StateFailed
	runsTotal.WithLabelValues(r.pipeline, "error").Inc()
	r.logger.Error().Err(err).Msg("Pipeline failed")
	return err
}

// finish moves the run to its terminal done state.
func (r *run) finish() {
	r.state = StateDone
	elapsed := time.Since(r.started)
	runsTotal.WithLabelValues(r.pipeline, "success").Inc()
	runDuration.WithLabelValues(r.pipeline).Observe(elapsed.Seconds())
	r.logger.Info().Str("state", string(StateDone)).Dur("duration", elapsed).Msg("Pipeline complete")
}

// firstColumn extracts the leading cell of every row, skipping blanks.
func firstColumn(rows [][]any) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if v := reconcile.CellString(row, 0); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// toCells converts projection rows to the wire shape of the sheet client.
func toCells(rows []reconcile.Row) [][]any {
	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = row
	}
	return cells
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
