package marketplace

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melitools/sheet-sync/internal/testutil"
	"github.com/melitools/sheet-sync/pkg/ratelimit"
)

func newTestMarketplaceClient(t *testing.T, mock *testutil.MockServer) *Client {
	t.Helper()
	limiter := ratelimit.New(time.Millisecond, zerolog.Nop())
	t.Cleanup(limiter.Close)

	client, err := NewClient(Config{
		BaseURL:     mock.URL(),
		AccessToken: "test-token",
		SellerID:    "seller-9",
		Timeout:     5 * time.Second,
	}, limiter)
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	limiter := ratelimit.New(time.Millisecond, zerolog.Nop())
	defer limiter.Close()

	_, err := NewClient(Config{SellerID: "s"}, limiter)
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://a"}, limiter)
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://a", SellerID: "s"}, nil)
	assert.Error(t, err)
}

func TestSearchOrders(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	var gotQuery url.Values
	mock.SetHandler("/orders/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"results": [{
				"id": 2000001,
				"date_created": "2026-03-10T15:04:05.000-06:00",
				"total_amount": 450.5,
				"shipping_cost": 99,
				"order_items": [{
					"item": {"id": "MLM100", "seller_sku": "SKU-1", "title": "Widget"},
					"quantity": 2,
					"unit_price": 225.25,
					"sale_fee": 30
				}]
			}],
			"paging": {"total": 1}
		}`))
	})

	client := newTestMarketplaceClient(t, mock)
	page, err := client.SearchOrders(context.Background(), SearchParams{
		Status:   "paid",
		DateFrom: "2026-03-01T00:00:00.000-06:00",
		DateTo:   "2026-03-10T23:59:59.999-06:00",
		Offset:   50,
		Limit:    50,
	})
	require.NoError(t, err)

	assert.Equal(t, "seller-9", gotQuery.Get("seller"))
	assert.Equal(t, "paid", gotQuery.Get("order.status"))
	assert.Equal(t, "2026-03-01T00:00:00.000-06:00", gotQuery.Get("order.date_created.from"))
	assert.Equal(t, "2026-03-10T23:59:59.999-06:00", gotQuery.Get("order.date_created.to"))
	assert.Equal(t, "50", gotQuery.Get("offset"))
	assert.Equal(t, "50", gotQuery.Get("limit"))

	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Results, 1)
	order := page.Results[0]
	assert.Equal(t, int64(2000001), order.ID)
	assert.Equal(t, 450.5, order.TotalAmount)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "SKU-1", order.OrderItems[0].Item.SellerSKU)
	assert.Equal(t, 2, order.OrderItems[0].Quantity)
}

func TestSearchOrders_MissingResultsIsIntegrityError(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetJSONResponse("/orders/search", http.StatusOK, `{"paging":{"total":0}}`)

	client := newTestMarketplaceClient(t, mock)
	_, err := client.SearchOrders(context.Background(), SearchParams{Status: "paid", Limit: 50})

	var intErr *IntegrityError
	require.ErrorAs(t, err, &intErr)
	assert.Equal(t, "results", intErr.Field)
}

func TestSearchOrders_EmptyResultsIsNotAnError(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetJSONResponse("/orders/search", http.StatusOK, `{"results":[],"paging":{"total":0}}`)

	client := newTestMarketplaceClient(t, mock)
	page, err := client.SearchOrders(context.Background(), SearchParams{Status: "paid", Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestSearchOrders_HTTPErrorReturnsAPIError(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetJSONResponse("/orders/search", http.StatusTooManyRequests, `{"message":"local rate limited"}`)

	client := newTestMarketplaceClient(t, mock)
	_, err := client.SearchOrders(context.Background(), SearchParams{Status: "paid", Limit: 50})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/orders/search", apiErr.Endpoint)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestGetItemVisits(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	var gotQuery url.Values
	mock.SetHandler("/items/MLM100/visits/time_window", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"total_visits": 42}`))
	})

	client := newTestMarketplaceClient(t, mock)
	visits, err := client.GetItemVisits(context.Background(), "MLM100", 30)
	require.NoError(t, err)

	assert.Equal(t, 42, visits)
	assert.Equal(t, "30", gotQuery.Get("last"))
	assert.Equal(t, "day", gotQuery.Get("unit"))
}

func TestGetItemVisits_MissingTotalIsZero(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetJSONResponse("/items/MLM100/visits/time_window", http.StatusOK, `{}`)

	client := newTestMarketplaceClient(t, mock)
	visits, err := client.GetItemVisits(context.Background(), "MLM100", 30)
	require.NoError(t, err)
	assert.Equal(t, 0, visits)
}

func TestOrderWindow(t *testing.T) {
	// 2026-03-10 12:00 UTC is 06:00 at UTC-6.
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	from, to := OrderWindow(now, 180, -6)
	assert.Equal(t, "2025-09-11T00:00:00.000-06:00", from)
	assert.Equal(t, "2026-03-10T23:59:59.999-06:00", to)
}

func TestOrderWindow_UTCMidnightRollsBackADay(t *testing.T) {
	// Just after midnight UTC is still the previous calendar day at UTC-6.
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)

	from, to := OrderWindow(now, 180, -6)
	assert.Equal(t, "2025-09-10T00:00:00.000-06:00", from)
	assert.Equal(t, "2026-03-09T23:59:59.999-06:00", to)
}
