package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// PostingAccounts holds the chart-of-accounts codes used when documents are posted.
type PostingAccounts struct {
	ReceivableCode string `mapstructure:"RECEIVABLE_ACCOUNT_CODE"`
	PayableCode    string `mapstructure:"PAYABLE_ACCOUNT_CODE"`
	RevenueCode    string `mapstructure:"REVENUE_ACCOUNT_CODE"`
	ExpenseCode    string `mapstructure:"EXPENSE_ACCOUNT_CODE"`
	OutputTaxCode  string `mapstructure:"OUTPUT_TAX_ACCOUNT_CODE"`
	InputTaxCode   string `mapstructure:"INPUT_TAX_ACCOUNT_CODE"`
}

// Config holds application configuration.
type Config struct {
	StorageDriver     string
	DatabaseURL       string
	EnableDBCheck     bool
	RunMigrations     bool
	LogLevel          string
	LogFormat         string
	OpenItemsPageSize int
	ReportStreamBatch int
	Posting           PostingAccounts

	// HTTP API
	Port               string
	IsProduction       bool
	JWTSecret          string
	JWTIssuer          string
	RateLimit          string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OPEN_ITEMS_PAGE_SIZE", 200)
	v.SetDefault("REPORT_STREAM_BATCH", 500)
	v.SetDefault("RECEIVABLE_ACCOUNT_CODE", "1200")
	v.SetDefault("PAYABLE_ACCOUNT_CODE", "2100")
	v.SetDefault("REVENUE_ACCOUNT_CODE", "4000")
	v.SetDefault("EXPENSE_ACCOUNT_CODE", "6000")
	v.SetDefault("OUTPUT_TAX_ACCOUNT_CODE", "2300")
	v.SetDefault("INPUT_TAX_ACCOUNT_CODE", "1400")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "bookkeeping-core")
	v.SetDefault("RATE_LIMIT", "600-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.AutomaticEnv()

	cfg := &Config{
		StorageDriver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:       v.GetString("PGSQL_URL"),
		EnableDBCheck:     v.GetBool("ENABLE_DB_CHECK"),
		RunMigrations:     v.GetBool("RUN_MIGRATIONS"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		OpenItemsPageSize: v.GetInt("OPEN_ITEMS_PAGE_SIZE"),
		ReportStreamBatch: v.GetInt("REPORT_STREAM_BATCH"),
		Posting: PostingAccounts{
			ReceivableCode: v.GetString("RECEIVABLE_ACCOUNT_CODE"),
			PayableCode:    v.GetString("PAYABLE_ACCOUNT_CODE"),
			RevenueCode:    v.GetString("REVENUE_ACCOUNT_CODE"),
			ExpenseCode:    v.GetString("EXPENSE_ACCOUNT_CODE"),
			OutputTaxCode:  v.GetString("OUTPUT_TAX_ACCOUNT_CODE"),
			InputTaxCode:   v.GetString("INPUT_TAX_ACCOUNT_CODE"),
		},
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	switch cfg.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_DRIVER is %s", StoragePostgres)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.OpenItemsPageSize <= 0 {
		log.Printf("Warning: invalid OPEN_ITEMS_PAGE_SIZE (%d). Defaulting to 200.\n", cfg.OpenItemsPageSize)
		cfg.OpenItemsPageSize = 200
	}
	if cfg.ReportStreamBatch <= 0 {
		log.Printf("Warning: invalid REPORT_STREAM_BATCH (%d). Defaulting to 500.\n", cfg.ReportStreamBatch)
		cfg.ReportStreamBatch = 500
	}

	if cfg.ShutdownTimeout <= 0 {
		log.Printf("Warning: invalid SHUTDOWN_TIMEOUT (%s). Defaulting to 10s.\n", cfg.ShutdownTimeout)
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return cfg, nil
}

// splitList parses a comma separated environment value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
