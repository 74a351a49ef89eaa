// Package marketplace provides the marketplace API collaborator: order
// search and per-item visit lookups, every call routed through the shared
// rate limiter so at most one request per interval is in flight.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/melitools/sheet-sync/pkg/ratelimit"
)

// Prometheus metrics for marketplace operations.
var marketplaceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sync_marketplace_requests_total",
	Help: "Total marketplace requests by endpoint and status",
}, []string{"endpoint", "status"})

// timestampLayout is the ISO-8601 form with milliseconds and a numeric
// zone offset the order search expects.
const timestampLayout = "2006-01-02T15:04:05.000-07:00"

// Config holds the marketplace client configuration.
type Config struct {
	BaseURL     string
	AccessToken string

	// SellerID scopes every order search.
	SellerID string

	// Timeout per HTTP call.
	Timeout time.Duration
}

// Client is the marketplace API client.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *ratelimit.Limiter
	logger     zerolog.Logger
}

// NewClient creates a marketplace client. The limiter is required: it is
// the only thing standing between the pipelines and the API quota.
func NewClient(cfg Config, limiter *ratelimit.Limiter) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("marketplace base URL is required")
	}
	if cfg.SellerID == "" {
		return nil, fmt.Errorf("marketplace seller id is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiter:    limiter,
		logger:     log.With().Str("component", "marketplace").Logger(),
	}, nil
}

// SearchOrders fetches one page of the seller's orders matching the
// status and creation date window.
func (c *Client) SearchOrders(ctx context.Context, p SearchParams) (*OrderSearchPage, error) {
	params := url.Values{}
	params.Set("seller", c.cfg.SellerID)
	params.Set("order.status", p.Status)
	params.Set("order.date_created.from", p.DateFrom)
	params.Set("order.date_created.to", p.DateTo)
	params.Set("offset", strconv.Itoa(p.Offset))
	params.Set("limit", strconv.Itoa(p.Limit))

	var body struct {
		Results json.RawMessage `json:"results"`
		Paging  struct {
			Total int `json:"total"`
		} `json:"paging"`
	}
	if err := c.get(ctx, "/orders/search", params, &body); err != nil {
		return nil, err
	}

	if body.Results == nil {
		return nil, &IntegrityError{Endpoint: "/orders/search", Field: "results"}
	}

	var orders []Order
	if err := json.Unmarshal(body.Results, &orders); err != nil {
		return nil, &APIError{Endpoint: "/orders/search", Message: "malformed results", Err: err}
	}

	return &OrderSearchPage{Results: orders, Total: body.Paging.Total}, nil
}

// GetItemVisits returns the total visits an item received over the last
// windowDays days. A missing total counts as zero.
func (c *Client) GetItemVisits(ctx context.Context, itemID string, windowDays int) (int, error) {
	endpoint := fmt.Sprintf("/items/%s/visits/time_window", url.PathEscape(itemID))

	params := url.Values{}
	params.Set("last", strconv.Itoa(windowDays))
	params.Set("unit", "day")

	var body struct {
		TotalVisits int `json:"total_visits"`
	}
	if err := c.get(ctx, endpoint, params, &body); err != nil {
		return 0, err
	}

	return body.TotalVisits, nil
}

// get performs one rate-limited GET and decodes the response into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.limiter.Schedule(ctx, func(ctx context.Context) error {
		u := c.cfg.BaseURL + endpoint + "?" + params.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return &APIError{Endpoint: endpoint, Message: "create request", Err: err}
		}
		if c.cfg.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			marketplaceRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{Endpoint: endpoint, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		marketplaceRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Msg("Marketplace request error")
			return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: string(msg)}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Endpoint: endpoint, Message: "decode response", Err: err}
		}
		return nil
	})
}

// OrderWindow converts the inclusive calendar span of the last `days`
// days, anchored at the fixed zone offset, into the start-of-day and
// end-of-day timestamps the order search expects.
func OrderWindow(now time.Time, days, utcOffsetHours int) (from, to string) {
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*3600)
	local := now.In(zone)
	first := local.AddDate(0, 0, -days)

	from = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, zone).Format(timestampLayout)
	to = time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), zone).Format(timestampLayout)
	return from, to
}
