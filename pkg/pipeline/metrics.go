package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/melitools/sheet-sync/pkg/marketplace"
	"github.com/melitools/sheet-sync/pkg/pagination"
	"github.com/melitools/sheet-sync/pkg/reconcile"
	"github.com/melitools/sheet-sync/pkg/sheets"
)

// Marketplace is the subset of the marketplace client the metrics
// pipeline depends on.
type Marketplace interface {
	SearchOrders(ctx context.Context, p marketplace.SearchParams) (*marketplace.OrderSearchPage, error)
	GetItemVisits(ctx context.Context, itemID string, windowDays int) (int, error)
}

// Per-stage failure policy, declared explicitly at each fetch call site.
const (
	orderFetchPolicy = Fatal
	visitFetchPolicy = SkipAndContinue
)

// MetricsConfig holds the order/visit pipeline settings.
type MetricsConfig struct {
	MetricsSpreadsheetID string

	OrderWindowDays int
	VisitWindowDays int
	PageSize        int
	UTCOffsetHours  int

	// SettleDelay is the mandatory wait between the order write and the
	// visit fetch.
	SettleDelay time.Duration
}

// MetricsPipeline refreshes the 180-day order sheet and the per-item
// 30-day visit column.
type MetricsPipeline struct {
	sheets sheets.Service
	market Marketplace
	cfg    MetricsConfig
	logger zerolog.Logger

	// Injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMetricsPipeline creates the order/visit sync orchestrator.
func NewMetricsPipeline(svc sheets.Service, market Marketplace, cfg MetricsConfig, logger zerolog.Logger) *MetricsPipeline {
	return &MetricsPipeline{
		sheets: svc,
		market: market,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Run executes fetch orders → write orders → settle → fetch visits →
// write visits. The settling delay lets the order rows become visible to
// the separate process that repopulates the visit id column; it is load
// bearing, not pacing.
func (m *MetricsPipeline) Run(ctx context.Context) error {
	r := newRun("metrics", m.logger)

	r.enter(StateFetchOrders)
	from, to := marketplace.OrderWindow(m.now(), m.cfg.OrderWindowDays, m.cfg.UTCOffsetHours)
	r.logger.Info().Str("from", from).Str("to", to).Msg("Fetching paid orders")

	orders, err := pagination.FetchAll(ctx, "orders", func(ctx context.Context, offset, limit int) ([]marketplace.Order, error) {
		page, err := m.market.SearchOrders(ctx, marketplace.SearchParams{
			Status:   "paid",
			DateFrom: from,
			DateTo:   to,
			Offset:   offset,
			Limit:    limit,
		})
		if err != nil {
			return nil, err
		}
		return page.Results, nil
	}, m.cfg.PageSize)
	if err != nil && orderFetchPolicy == Fatal {
		return r.fail(fmt.Errorf("fetch orders: %w", err))
	}

	r.enter(StateWriteOrders)
	rows := orderRows(orders)
	if err := m.sheets.ClearRange(ctx, m.cfg.MetricsSpreadsheetID, ordersDstRange); err != nil {
		return r.fail(fmt.Errorf("clear %s: %w", ordersDstRange, err))
	}
	if len(rows) > 0 {
		if err := m.sheets.AppendRows(ctx, m.cfg.MetricsSpreadsheetID, ordersDstRange, toCells(rows)); err != nil {
			return r.fail(fmt.Errorf("write %s: %w", ordersDstRange, err))
		}
	}
	rowsWrittenTotal.WithLabelValues("orders").Add(float64(len(rows)))

	r.enter(StateSettle)
	if err := m.sleep(ctx, m.cfg.SettleDelay); err != nil {
		return r.fail(err)
	}

	r.enter(StateFetchVisits)
	idRows, err := m.sheets.ReadRange(ctx, m.cfg.MetricsSpreadsheetID, visitIDRange)
	if err != nil {
		return r.fail(fmt.Errorf("read visit item ids: %w", err))
	}
	visits := m.fetchVisits(ctx, r, firstColumn(idRows), visitFetchPolicy)

	r.enter(StateWriteVisits)
	if err := m.sheets.ClearRange(ctx, m.cfg.MetricsSpreadsheetID, visitsDstRange); err != nil {
		return r.fail(fmt.Errorf("clear %s: %w", visitsDstRange, err))
	}
	if len(visits) > 0 {
		// Only the count column is written, aligned to the pre-existing
		// item id column.
		counts := make([][]any, len(visits))
		for i, row := range visits {
			counts[i] = []any{row[1]}
		}
		if err := m.sheets.AppendRows(ctx, m.cfg.MetricsSpreadsheetID, visitsDstRange, counts); err != nil {
			return r.fail(fmt.Errorf("write %s: %w", visitsDstRange, err))
		}
	}
	rowsWrittenTotal.WithLabelValues("visits").Add(float64(len(visits)))

	r.finish()
	return nil
}

// fetchVisits collects [itemID, totalVisits] pairs one item at a time.
// Unlike every other fetch in the system, a single item failure under
// SkipAndContinue drops only that item.
func (m *MetricsPipeline) fetchVisits(ctx context.Context, r *run, itemIDs []string, policy FailurePolicy) []reconcile.Row {
	visits := make([]reconcile.Row, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		total, err := m.market.GetItemVisits(ctx, itemID, m.cfg.VisitWindowDays)
		if err != nil {
			if policy == SkipAndContinue {
				visitSkipsTotal.Inc()
				r.logger.Warn().Err(err).Str("item_id", itemID).Msg("Skipping item visits")
				continue
			}
			r.logger.Error().Err(err).Str("item_id", itemID).Msg("Item visit fetch failed")
			return visits
		}
		visits = append(visits, reconcile.Row{itemID, total})
	}
	return visits
}

// orderRows projects orders into the order sheet's column layout.
func orderRows(orders []marketplace.Order) []reconcile.Row {
	rows := make([]reconcile.Row, 0, len(orders))
	for _, o := range orders {
		var item marketplace.OrderItem
		if len(o.OrderItems) > 0 {
			item = o.OrderItems[0]
		}
		rows = append(rows, reconcile.Row{
			o.DateCreated.Format("02/01/2006"),
			// The apostrophe keeps the id textual in the sheet.
			"'" + strconv.FormatInt(o.ID, 10),
			item.Item.ID,
			item.Item.SellerSKU,
			item.Item.Title,
			item.Quantity,
			item.UnitPrice,
			o.TotalAmount,
			o.ShippingCost,
			item.SaleFee,
		})
	}
	return rows
}
