package reconcile

// Result holds the per-destination projections produced by one
// reconciliation pass.
type Result struct {
	ProductRows   []Row
	InventoryRows []Row
	SalesRows     []Row

	// EnrichmentASINs are the asin values of the surviving product rows,
	// in output order. They feed the catalog enrichment stage.
	EnrichmentASINs []string
}

// Reconcile joins the sources against the authoritative listing id list
// and builds the destination projections.
//
// Products and inventory join on listing id; sales join on the matched
// product's sku, not the listing id. Join keys need not be unique within
// a source: the first record wins. Duplicate listing ids produce
// duplicate output rows. A listing id is dropped from every destination
// only when none of its three projections survives filtering.
func Reconcile(listingIDs []string, products []Product, inventory []Inventory, sales []Sales) Result {
	productByListing := indexProducts(products)
	inventoryByListing := indexInventory(inventory)
	salesBySKU := indexSales(sales)

	var res Result
	for _, id := range listingIDs {
		product := productByListing[id]
		inv := inventoryByListing[id]
		sale := salesBySKU[product.SKU]

		productRow := Row{product.SKU, product.ASIN, id, product.ImagePrimary, product.ImageSecondary, product.Title}
		inventoryRow := Row{inv.SKU, inv.ASIN, inv.ListingID, inv.StockOnHand, inv.StockRequested}
		salesRow := Row{product.SKU, sale.QuantitySold, sale.ConversionRate}

		hasProduct := !productRow.Empty()
		hasSales := !salesRow.Empty()
		// Zero stock with zero requested is treated as no inventory even
		// when the id cells are populated.
		hasInventory := !inventoryRow.Empty() && !(inv.StockOnHand == 0 && inv.StockRequested == 0)

		if !hasProduct && !hasSales && !hasInventory {
			continue
		}

		if hasProduct {
			res.ProductRows = append(res.ProductRows, productRow)
			res.EnrichmentASINs = append(res.EnrichmentASINs, product.ASIN)
		}
		if hasInventory {
			res.InventoryRows = append(res.InventoryRows, inventoryRow)
		}
		if hasSales {
			res.SalesRows = append(res.SalesRows, salesRow)
		}
	}

	return res
}

// indexProducts builds the listing id lookup table, first match wins.
func indexProducts(products []Product) map[string]Product {
	m := make(map[string]Product, len(products))
	for _, p := range products {
		if _, ok := m[p.ListingID]; !ok {
			m[p.ListingID] = p
		}
	}
	return m
}

// indexInventory builds the listing id lookup table, first match wins.
func indexInventory(inventory []Inventory) map[string]Inventory {
	m := make(map[string]Inventory, len(inventory))
	for _, inv := range inventory {
		if _, ok := m[inv.ListingID]; !ok {
			m[inv.ListingID] = inv
		}
	}
	return m
}

// indexSales builds the sku lookup table, first match wins.
func indexSales(sales []Sales) map[string]Sales {
	m := make(map[string]Sales, len(sales))
	for _, s := range sales {
		if _, ok := m[s.SKU]; !ok {
			m[s.SKU] = s
		}
	}
	return m
}
