// Package config builds the process-wide configuration object. It is
// constructed once at startup and passed by reference into every
// collaborator constructor; there are no configuration globals.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig
	Log         LogConfig
	Redis       RedisConfig
	Sheets      SheetsConfig
	Marketplace MarketplaceConfig
	Pipeline    PipelineConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool
}

// RedisConfig holds connection settings for the catalog document store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SheetsConfig holds the spreadsheet API settings and the identifiers of
// every spreadsheet the pipelines touch.
type SheetsConfig struct {
	BaseURL      string
	DriveBaseURL string
	AccessToken  string

	// ReportSpreadsheetID is the destination workbook all product-pipeline
	// writes go to.
	ReportSpreadsheetID string

	// Source workbooks, maintained by separate processes.
	ProductsSpreadsheetID  string
	InventorySpreadsheetID string

	// MetricsSpreadsheetID holds the sales source sheet and the order and
	// visit report sheets.
	MetricsSpreadsheetID string
}

// MarketplaceConfig holds the marketplace API settings.
type MarketplaceConfig struct {
	BaseURL     string
	AccessToken string
	SellerID    string

	// RequestInterval is the minimum spacing between marketplace calls.
	RequestInterval time.Duration

	OrderWindowDays int
	VisitWindowDays int
	PageSize        int

	// UTCOffsetHours is the fixed zone offset used to anchor the
	// inclusive order date window.
	UTCOffsetHours int
}

// PipelineConfig holds pipeline pacing and pricing settings.
type PipelineConfig struct {
	// SettleDelay is the wait between the order write and the visit fetch,
	// giving the downstream sheet process time to pick up the new rows.
	SettleDelay time.Duration

	// ListingFixedFee is the fixed additive amount in the minimum viable
	// price formula. Its upstream origin is undocumented; keep it
	// configurable instead of guessing.
	ListingFixedFee float64
}

// Load reads configuration from SYNC_-prefixed environment variables with
// sensible defaults for everything but credentials.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Sheets: SheetsConfig{
			BaseURL:                v.GetString("sheets.base_url"),
			DriveBaseURL:           v.GetString("sheets.drive_base_url"),
			AccessToken:            v.GetString("sheets.access_token"),
			ReportSpreadsheetID:    v.GetString("sheets.report_spreadsheet_id"),
			ProductsSpreadsheetID:  v.GetString("sheets.products_spreadsheet_id"),
			InventorySpreadsheetID: v.GetString("sheets.inventory_spreadsheet_id"),
			MetricsSpreadsheetID:   v.GetString("sheets.metrics_spreadsheet_id"),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:         v.GetString("marketplace.base_url"),
			AccessToken:     v.GetString("marketplace.access_token"),
			SellerID:        v.GetString("marketplace.seller_id"),
			RequestInterval: v.GetDuration("marketplace.request_interval"),
			OrderWindowDays: v.GetInt("marketplace.order_window_days"),
			VisitWindowDays: v.GetInt("marketplace.visit_window_days"),
			PageSize:        v.GetInt("marketplace.page_size"),
			UTCOffsetHours:  v.GetInt("marketplace.utc_offset_hours"),
		},
		Pipeline: PipelineConfig{
			SettleDelay:     v.GetDuration("pipeline.settle_delay"),
			ListingFixedFee: v.GetFloat64("pipeline.listing_fixed_fee"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sheet-sync")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com/v4")
	v.SetDefault("sheets.drive_base_url", "https://www.googleapis.com/drive/v3")
	v.SetDefault("sheets.access_token", "")
	v.SetDefault("sheets.report_spreadsheet_id", "")
	v.SetDefault("sheets.products_spreadsheet_id", "")
	v.SetDefault("sheets.inventory_spreadsheet_id", "")
	v.SetDefault("sheets.metrics_spreadsheet_id", "")

	v.SetDefault("marketplace.base_url", "https://api.mercadolibre.com")
	v.SetDefault("marketplace.access_token", "")
	v.SetDefault("marketplace.seller_id", "")
	v.SetDefault("marketplace.request_interval", 500*time.Millisecond)
	v.SetDefault("marketplace.order_window_days", 180)
	v.SetDefault("marketplace.visit_window_days", 30)
	v.SetDefault("marketplace.page_size", 50)
	v.SetDefault("marketplace.utc_offset_hours", -6)

	v.SetDefault("pipeline.settle_delay", 3*time.Second)
	v.SetDefault("pipeline.listing_fixed_fee", 70)
}

// Validate checks that the settings without usable defaults are present.
func (c *Config) Validate() error {
	var missing []string

	if c.Sheets.AccessToken == "" {
		missing = append(missing, "SYNC_SHEETS_ACCESS_TOKEN")
	}
	if c.Sheets.ReportSpreadsheetID == "" {
		missing = append(missing, "SYNC_SHEETS_REPORT_SPREADSHEET_ID")
	}
	if c.Sheets.ProductsSpreadsheetID == "" {
		missing = append(missing, "SYNC_SHEETS_PRODUCTS_SPREADSHEET_ID")
	}
	if c.Sheets.InventorySpreadsheetID == "" {
		missing = append(missing, "SYNC_SHEETS_INVENTORY_SPREADSHEET_ID")
	}
	if c.Sheets.MetricsSpreadsheetID == "" {
		missing = append(missing, "SYNC_SHEETS_METRICS_SPREADSHEET_ID")
	}
	if c.Marketplace.AccessToken == "" {
		missing = append(missing, "SYNC_MARKETPLACE_ACCESS_TOKEN")
	}
	if c.Marketplace.SellerID == "" {
		missing = append(missing, "SYNC_MARKETPLACE_SELLER_ID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
