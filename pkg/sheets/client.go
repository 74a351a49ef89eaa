// Package sheets provides the spreadsheet collaborator used by the sync
// pipelines: range reads, clear-then-append writes and folder listing
// against the spreadsheet REST API.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for spreadsheet operations.
var (
	sheetOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_sheet_operations_total",
		Help: "Total spreadsheet operations by op and status",
	}, []string{"op", "status"})

	sheetOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_sheet_operation_duration_seconds",
		Help:    "Spreadsheet operation duration in seconds by op",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"op"})
)

// File identifies one spreadsheet found in a folder.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service is the spreadsheet contract the pipelines depend on.
type Service interface {
	// ReadRange returns the cell values of a range, row by row.
	ReadRange(ctx context.Context, spreadsheetID, rangeSpec string) ([][]any, error)

	// AppendRows adds rows after the existing content of a range.
	AppendRows(ctx context.Context, spreadsheetID, rangeSpec string, rows [][]any) error

	// ClearRange removes all values from a range.
	ClearRange(ctx context.Context, spreadsheetID, rangeSpec string) error

	// ListSpreadsheetsInFolder drains the folder listing completely
	// before returning.
	ListSpreadsheetsInFolder(ctx context.Context, folderID string) ([]File, error)
}

// Config holds the sheets client configuration.
type Config struct {
	// BaseURL of the spreadsheet values API.
	BaseURL string

	// DriveBaseURL of the file listing API.
	DriveBaseURL string

	// AccessToken sent as a bearer token on every call.
	AccessToken string

	// Timeout per HTTP call.
	Timeout time.Duration
}

// DefaultConfig returns a configuration pointing at the hosted APIs.
func DefaultConfig(accessToken string) Config {
	return Config{
		BaseURL:      "https://sheets.googleapis.com/v4",
		DriveBaseURL: "https://www.googleapis.com/drive/v3",
		AccessToken:  accessToken,
		Timeout:      30 * time.Second,
	}
}

// Client is the HTTP implementation of Service.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     zerolog.Logger
}

// NewClient creates a sheets client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.DriveBaseURL == "" {
		return nil, fmt.Errorf("sheets base URLs are required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("sheets access token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     log.With().Str("component", "sheets").Logger(),
	}, nil
}

// ReadRange fetches the values of a range with unformatted cell values.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, rangeSpec string) ([][]any, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueRenderOption=UNFORMATTED_VALUE",
		c.cfg.BaseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeSpec))

	var body struct {
		Values [][]any `json:"values"`
	}
	if err := c.call(ctx, "read", spreadsheetID, rangeSpec, http.MethodGet, u, nil, &body); err != nil {
		return nil, err
	}

	// An empty range has no values key at all.
	return body.Values, nil
}

// AppendRows appends rows to a range with user-entered value parsing.
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, rangeSpec string, rows [][]any) error {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.cfg.BaseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeSpec))

	payload := map[string]any{"values": rows}
	return c.call(ctx, "append", spreadsheetID, rangeSpec, http.MethodPost, u, payload, nil)
}

// ClearRange clears all values from a range.
func (c *Client) ClearRange(ctx context.Context, spreadsheetID, rangeSpec string) error {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s:clear",
		c.cfg.BaseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeSpec))

	return c.call(ctx, "clear", spreadsheetID, rangeSpec, http.MethodPost, u, struct{}{}, nil)
}

// ListSpreadsheetsInFolder lists every spreadsheet in a folder, following
// page tokens until the listing is drained.
func (c *Client) ListSpreadsheetsInFolder(ctx context.Context, folderID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType='application/vnd.google-apps.spreadsheet' and trashed=false", folderID)

	var files []File
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("q", query)
		params.Set("fields", "nextPageToken, files(id, name)")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		u := c.cfg.DriveBaseURL + "/files?" + params.Encode()

		var body struct {
			NextPageToken string `json:"nextPageToken"`
			Files         []File `json:"files"`
		}
		if err := c.call(ctx, "list", folderID, "", http.MethodGet, u, nil, &body); err != nil {
			return nil, err
		}

		files = append(files, body.Files...)
		pageToken = body.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug().Str("folder_id", folderID).Int("files", len(files)).Msg("Folder listing drained")
	return files, nil
}

// call performs one API request and decodes the response into out.
func (c *Client) call(ctx context.Context, op, spreadsheetID, rangeSpec, method, u string, payload, out any) error {
	start := time.Now()
	defer func() {
		sheetOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &IOError{Op: op, SpreadsheetID: spreadsheetID, Range: rangeSpec, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return &IOError{Op: op, SpreadsheetID: spreadsheetID, Range: rangeSpec, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		sheetOpsTotal.WithLabelValues(op, "network_error").Inc()
		return &IOError{Op: op, SpreadsheetID: spreadsheetID, Range: rangeSpec, Err: err}
	}
	defer resp.Body.Close()

	sheetOpsTotal.WithLabelValues(op, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Str("op", op).
			Str("spreadsheet_id", spreadsheetID).
			Str("range", rangeSpec).
			Int("status", resp.StatusCode).
			Msg("Sheet operation failed")
		return &IOError{Op: op, SpreadsheetID: spreadsheetID, Range: rangeSpec, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &IOError{Op: op, SpreadsheetID: spreadsheetID, Range: rangeSpec, Err: err}
		}
	}
	return nil
}
