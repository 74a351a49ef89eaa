package catalog

// Document is one externally tracked catalog entry, keyed by asin.
// Numeric fields the upstream tracker has no value for stay nil and
// project as empty cells, not zeroes.
type Document struct {
	ASIN      string `json:"asin"`
	CatalogID string `json:"catalog_id"`

	ReferencePrice    *float64 `json:"reference_price,omitempty"`
	FirstListingPrice *float64 `json:"first_listing_price,omitempty"`
	AveragePrice30d   *float64 `json:"average_price_30d,omitempty"`
	TotalVisits30d    *float64 `json:"total_visits_30d,omitempty"`
	EstimatedProfit   *float64 `json:"estimated_profit,omitempty"`

	PriceHistory []float64 `json:"price_history,omitempty"`

	SellerID     string   `json:"seller_id,omitempty"`
	SoldQuantity *float64 `json:"sold_quantity,omitempty"`

	// SaleCommission is the marketplace commission rate as a fraction,
	// e.g. 0.1 for 10%.
	SaleCommission *float64 `json:"sale_commission,omitempty"`
	ShippingCost   *float64 `json:"shipping_cost,omitempty"`

	CompetitorAvgPrice90d   *float64 `json:"competitor_avg_price_90d,omitempty"`
	CompetitorOutOfStock90d *float64 `json:"competitor_out_of_stock_90d,omitempty"`
}
