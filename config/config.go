package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Source URLs and filter defaults mirror the production deal search:
// Houston-area businesses between $50k and $5M.
const (
	defaultDealStreamURL = "https://dealstream.com/texas-businesses-for-sale?location=Houston"
	defaultBizQuestURL   = "https://www.bizquest.com/texas-businesses-for-sale/houston/"
	defaultSBAFeedURL    = "https://sba-llms-prd-public.sbalenderportal.com/SBA-Monthly-Lender7AActivity.xlsx"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Destination store selection: "airtable" (default) or "postgres".
	DealStore string

	AirtableBase  string
	AirtableToken string
	AirtableTable string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	DealStreamURL string
	BizQuestURL   string
	SBAFeedURL    string

	MinPrice          int
	MaxPrice          int
	RequiredLocations []string

	AdapterTimeoutSec int
	ParallelAdapters  bool
	MaxRetries        int
	RateLimitMs       int

	CSVOutputPath string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DealStore: strings.ToLower(getEnv("DEAL_STORE", "airtable")),

		AirtableBase:  getEnv("AIRTABLE_BASE", ""),
		AirtableToken: getEnv("AIRTABLE_TOKEN", ""),
		AirtableTable: getEnv("AIRTABLE_TABLE", "Deals"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dealscout"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "deals_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DealStreamURL: getEnv("DEALSTREAM_URL", defaultDealStreamURL),
		BizQuestURL:   getEnv("BIZQUEST_URL", defaultBizQuestURL),
		SBAFeedURL:    getEnv("SBA_FEED_URL", defaultSBAFeedURL),

		MinPrice:          getEnvInt("MIN_PRICE", 50000),
		MaxPrice:          getEnvInt("MAX_PRICE", 5000000),
		RequiredLocations: getEnvList("REQUIRED_LOCATIONS", []string{"houston", "texas", "tx"}),

		AdapterTimeoutSec: getEnvInt("ADAPTER_TIMEOUT_SEC", 120),
		ParallelAdapters:  getEnvBool("PARALLEL_ADAPTERS", false),
		MaxRetries:        getEnvInt("MAX_RETRIES", 2),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 250),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// Validate checks that the selected destination store has the credentials
// it needs. This runs before any network activity so a misconfigured run
// fails fast instead of scraping and then dropping everything.
func (c *Config) Validate() error {
	switch c.DealStore {
	case "airtable":
		if c.AirtableBase == "" || c.AirtableToken == "" {
			return fmt.Errorf("config: AIRTABLE_BASE and AIRTABLE_TOKEN are required when DEAL_STORE=airtable")
		}
	case "postgres":
		if c.PostgresPassword == "" {
			return fmt.Errorf("config: POSTGRES_PASSWORD is required when DEAL_STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown DEAL_STORE %q (want airtable or postgres)", c.DealStore)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
