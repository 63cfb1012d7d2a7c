package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	GeoIPDBPath        string
	DefaultLocale      string
	DirectoryBaseURL   string
	DirectoryAPIKey    string
	DirectoryDomain    string
	DirectoryPageSize  int
	ProvisionRetries   int
	ProvisionBaseDelay time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RequestTimeout     time.Duration
	RateLimitPerMin    int
	AllowedOrigins     []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "ar"),
		DirectoryBaseURL:   os.Getenv("DIRECTORY_BASE_URL"),
		DirectoryAPIKey:    os.Getenv("DIRECTORY_API_KEY"),
		DirectoryDomain:    getEnv("DIRECTORY_DOMAIN", "import.ataa.local"),
		DirectoryPageSize:  getEnvInt("DIRECTORY_PAGE_SIZE", 1000),
		ProvisionRetries:   getEnvInt("PROVISION_MAX_RETRIES", 3),
		ProvisionBaseDelay: time.Second * time.Duration(getEnvInt("PROVISION_BASE_DELAY_SECONDS", 1)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RequestTimeout:     time.Second * time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:     splitEnvList("ALLOWED_ORIGINS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DirectoryPageSize <= 0 || cfg.DirectoryPageSize > 1000 {
		return nil, fmt.Errorf("DIRECTORY_PAGE_SIZE must be between 1 and 1000")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
