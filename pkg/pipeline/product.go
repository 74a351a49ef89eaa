package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/melitools/sheet-sync/pkg/reconcile"
	"github.com/melitools/sheet-sync/pkg/sheets"
)

// Enricher is the catalog enrichment stage the product pipeline invokes.
type Enricher interface {
	Enrich(ctx context.Context, asins []string) ([]reconcile.Row, error)
}

// ProductConfig identifies the workbooks the product pipeline touches.
type ProductConfig struct {
	// ReportSpreadsheetID receives every write.
	ReportSpreadsheetID string

	// Source workbooks.
	ProductsSpreadsheetID  string
	InventorySpreadsheetID string
	MetricsSpreadsheetID   string
}

// ProductReport carries the written row sets back to the HTTP layer.
type ProductReport struct {
	Products  []reconcile.Row `json:"productos"`
	Inventory []reconcile.Row `json:"inventario"`
	Catalog   []reconcile.Row `json:"asinCatalogMapping"`
	Sales     []reconcile.Row `json:"sales"`
}

// ProductPipeline rebuilds the product, inventory, sales and catalog
// report sheets from the live sources on every run.
type ProductPipeline struct {
	sheets   sheets.Service
	enricher Enricher
	cfg      ProductConfig
	logger   zerolog.Logger
}

// NewProductPipeline creates the product sync orchestrator.
func NewProductPipeline(svc sheets.Service, enricher Enricher, cfg ProductConfig, logger zerolog.Logger) *ProductPipeline {
	return &ProductPipeline{
		sheets:   svc,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes fetch → reconcile → enrich → write. Any stage failure is
// terminal; destination ranges cleared before a later failure stay empty.
func (p *ProductPipeline) Run(ctx context.Context) (*ProductReport, error) {
	r := newRun("product", p.logger)

	r.enter(StateFetchSources)
	var (
		listingIDs []string
		products   []reconcile.Product
		inventory  []reconcile.Inventory
		sales      []reconcile.Sales
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := p.sheets.ReadRange(gctx, p.cfg.ReportSpreadsheetID, listingIDRange)
		if err != nil {
			return fmt.Errorf("read listing ids: %w", err)
		}
		listingIDs = firstColumn(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := p.sheets.ReadRange(gctx, p.cfg.ProductsSpreadsheetID, productSrcRange)
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
		products = make([]reconcile.Product, len(rows))
		for i, row := range rows {
			products[i] = reconcile.ProductFromRow(row)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := p.sheets.ReadRange(gctx, p.cfg.InventorySpreadsheetID, inventorySrcRange)
		if err != nil {
			return fmt.Errorf("read inventory: %w", err)
		}
		inventory = make([]reconcile.Inventory, len(rows))
		for i, row := range rows {
			inventory[i] = reconcile.InventoryFromRow(row)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := p.sheets.ReadRange(gctx, p.cfg.MetricsSpreadsheetID, salesSrcRange)
		if err != nil {
			return fmt.Errorf("read sales: %w", err)
		}
		sales = make([]reconcile.Sales, len(rows))
		for i, row := range rows {
			sales[i] = reconcile.SalesFromRow(row)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, r.fail(err)
	}

	r.enter(StateReconcile)
	res := reconcile.Reconcile(listingIDs, products, inventory, sales)
	r.logger.Debug().
		Int("listing_ids", len(listingIDs)).
		Int("product_rows", len(res.ProductRows)).
		Int("inventory_rows", len(res.InventoryRows)).
		Int("sales_rows", len(res.SalesRows)).
		Msg("Reconciliation complete")

	r.enter(StateEnrich)
	catalogRows, err := p.enricher.Enrich(ctx, res.EnrichmentASINs)
	if err != nil {
		return nil, r.fail(fmt.Errorf("enrich catalog: %w", err))
	}

	r.enter(StateWrite)
	w, wctx := errgroup.WithContext(ctx)
	w.Go(p.replaceRange(wctx, "products", productDstRange, res.ProductRows))
	w.Go(p.replaceRange(wctx, "inventory", inventoryDstRange, res.InventoryRows))
	w.Go(p.replaceRange(wctx, "catalog", catalogDstRange, catalogRows))
	w.Go(p.replaceRange(wctx, "sales", salesDstRange, res.SalesRows))
	if err := w.Wait(); err != nil {
		return nil, r.fail(err)
	}

	r.finish()
	return &ProductReport{
		Products:  res.ProductRows,
		Inventory: res.InventoryRows,
		Catalog:   catalogRows,
		Sales:     res.SalesRows,
	}, nil
}

// replaceRange clears a destination range and appends the new row set.
// The clear always completes before the append for the same destination;
// different destinations run concurrently.
func (p *ProductPipeline) replaceRange(ctx context.Context, destination, rangeSpec string, rows []reconcile.Row) func() error {
	return func() error {
		if err := p.sheets.ClearRange(ctx, p.cfg.ReportSpreadsheetID, rangeSpec); err != nil {
			return fmt.Errorf("clear %s: %w", rangeSpec, err)
		}
		if len(rows) > 0 {
			if err := p.sheets.AppendRows(ctx, p.cfg.ReportSpreadsheetID, rangeSpec, toCells(rows)); err != nil {
				return fmt.Errorf("write %s: %w", rangeSpec, err)
			}
		}
		rowsWrittenTotal.WithLabelValues(destination).Add(float64(len(rows)))
		return nil
	}
}
