package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/melitools/sheet-sync/pkg/reconcile"
)

// DefaultListingFixedFee is the fixed additive amount in the minimum
// viable price formula.
const DefaultListingFixedFee = 70

// EnricherConfig holds the enrichment settings.
type EnricherConfig struct {
	ListingFixedFee float64
}

// Enricher builds the catalog enrichment projection for a set of asins.
type Enricher struct {
	store    Store
	fixedFee decimal.Decimal
	logger   zerolog.Logger
}

// NewEnricher creates an enricher over the given document store.
func NewEnricher(store Store, cfg EnricherConfig, logger zerolog.Logger) *Enricher {
	fee := cfg.ListingFixedFee
	if fee == 0 {
		fee = DefaultListingFixedFee
	}
	return &Enricher{
		store:    store,
		fixedFee: decimal.NewFromFloat(fee),
		logger:   logger,
	}
}

// Enrich looks up the catalog documents for the given asins and projects
// them into enrichment rows. Result order follows the store, not the
// input. Zero matching documents is not an error.
func (e *Enricher) Enrich(ctx context.Context, asins []string) ([]reconcile.Row, error) {
	docs, err := e.store.FindByASINs(ctx, asins)
	if err != nil {
		return nil, fmt.Errorf("find catalog documents: %w", err)
	}

	e.logger.Debug().
		Int("asins", len(asins)).
		Int("documents", len(docs)).
		Msg("Catalog lookup complete")

	rows := make([]reconcile.Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, reconcile.Row{
			doc.ASIN,
			doc.CatalogID,
			numCell(doc.ReferencePrice),
			numCell(doc.FirstListingPrice),
			numCell(doc.AveragePrice30d),
			numCell(doc.TotalVisits30d),
			numCell(doc.EstimatedProfit),
			len(doc.PriceHistory),
			doc.SellerID,
			nonZeroCell(doc.SoldQuantity),
			e.minimumViablePrice(doc),
			nonZeroCell(doc.CompetitorAvgPrice90d),
			numCell(doc.CompetitorOutOfStock90d),
		})
	}

	return rows, nil
}

// minimumViablePrice computes (referencePrice + shippingCost + fixedFee)
// / (1 - commission), rounded to 2 places. The cell stays an empty string
// unless the reference price is positive and a commission rate below 1 is
// present; it is never zero and never NaN.
func (e *Enricher) minimumViablePrice(doc Document) any {
	if doc.ReferencePrice == nil || *doc.ReferencePrice <= 0 {
		return ""
	}
	if doc.SaleCommission == nil || *doc.SaleCommission >= 1 {
		return ""
	}

	shipping := decimal.Zero
	if doc.ShippingCost != nil {
		shipping = decimal.NewFromFloat(*doc.ShippingCost)
	}

	price := decimal.NewFromFloat(*doc.ReferencePrice).
		Add(shipping).
		Add(e.fixedFee).
		Div(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(*doc.SaleCommission))).
		Round(2)

	return price.InexactFloat64()
}

// numCell projects an optional numeric field: nil becomes an empty cell,
// any present value (including zero) is kept.
func numCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// nonZeroCell projects an optional numeric field where the upstream
// source treats zero the same as absent.
func nonZeroCell(v *float64) any {
	if v == nil || *v == 0 {
		return ""
	}
	return *v
}
