// Package reconcile joins the independently fetched marketplace sources
// into destination-shaped projection rows.
package reconcile

import (
	"fmt"
	"strconv"
)

// Row is a destination-shaped projection: one cell per destination column.
type Row []any

// Empty reports whether every cell is nil or an empty string. A numeric
// zero counts as data; the inventory zero-stock rule is applied on top of
// this in Reconcile.
func (r Row) Empty() bool {
	for _, cell := range r {
		if cell == nil {
			continue
		}
		if s, ok := cell.(string); ok && s == "" {
			continue
		}
		return false
	}
	return true
}

// Column positions within each source range, relative to the range start.
// Products are read from Productos!A2:F, inventory from Inventario!B2:P
// and sales from Ventas30!A2:M.
const (
	productColSKU = iota
	productColASIN
	productColListingID
	productColImagePrimary
	productColImageSecondary
	productColTitle
)

const (
	inventoryColSKU       = 0
	inventoryColASIN      = 1
	inventoryColListingID = 2
	inventoryColStock     = 8
	inventoryColRequested = 14
)

const (
	salesColSKU        = 0
	salesColQuantity   = 2
	salesColConversion = 12
)

// Product is one listing of the product source sheet.
type Product struct {
	SKU            string
	ASIN           string
	ListingID      string
	ImagePrimary   string
	ImageSecondary string
	Title          string
}

// Inventory is one row of the inventory source sheet.
type Inventory struct {
	SKU            string
	ASIN           string
	ListingID      string
	StockOnHand    float64
	StockRequested float64
}

// Sales is one row of the 30-day sales source sheet.
type Sales struct {
	SKU            string
	QuantitySold   float64
	ConversionRate float64
}

// ProductFromRow maps a source sheet row onto a Product.
func ProductFromRow(row []any) Product {
	return Product{
		SKU:            CellString(row, productColSKU),
		ASIN:           CellString(row, productColASIN),
		ListingID:      CellString(row, productColListingID),
		ImagePrimary:   CellString(row, productColImagePrimary),
		ImageSecondary: CellString(row, productColImageSecondary),
		Title:          CellString(row, productColTitle),
	}
}

// InventoryFromRow maps a source sheet row onto an Inventory record.
func InventoryFromRow(row []any) Inventory {
	return Inventory{
		SKU:            CellString(row, inventoryColSKU),
		ASIN:           CellString(row, inventoryColASIN),
		ListingID:      CellString(row, inventoryColListingID),
		StockOnHand:    CellNumber(row, inventoryColStock),
		StockRequested: CellNumber(row, inventoryColRequested),
	}
}

// SalesFromRow maps a source sheet row onto a Sales record.
func SalesFromRow(row []any) Sales {
	return Sales{
		SKU:            CellString(row, salesColSKU),
		QuantitySold:   CellNumber(row, salesColQuantity),
		ConversionRate: CellNumber(row, salesColConversion),
	}
}

// CellString returns the cell at index i as a string. Missing and nil
// cells become the empty string; unformatted numeric cells are rendered
// without an exponent.
func CellString(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	switch v := row[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// CellNumber returns the cell at index i as a float64, defaulting to 0
// for missing, empty or unparseable cells.
func CellNumber(row []any, i int) float64 {
	if i >= len(row) {
		return 0
	}
	switch v := row[i].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
