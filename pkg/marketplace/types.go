package marketplace

import "time"

// OrderItem is one line of a marketplace order.
type OrderItem struct {
	Item struct {
		ID        string `json:"id"`
		SellerSKU string `json:"seller_sku"`
		Title     string `json:"title"`
	} `json:"item"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	SaleFee   float64 `json:"sale_fee"`
}

// Order is a marketplace order as returned by the search endpoint.
type Order struct {
	ID           int64       `json:"id"`
	DateCreated  time.Time   `json:"date_created"`
	TotalAmount  float64     `json:"total_amount"`
	ShippingCost float64     `json:"shipping_cost"`
	OrderItems   []OrderItem `json:"order_items"`
}

// SearchParams describe one page of an order search.
type SearchParams struct {
	Status   string
	DateFrom string
	DateTo   string
	Offset   int
	Limit    int
}

// OrderSearchPage is one page of order search results.
type OrderSearchPage struct {
	Results []Order
	Total   int
}
