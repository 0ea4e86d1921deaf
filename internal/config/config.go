package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort                  = "8080"
	defaultDatabaseURL           = "file:articles.db"
	defaultAllowedOrigins        = "http://localhost:8080,http://127.0.0.1:8080"
	defaultSerperBaseURL         = "https://google.serper.dev"
	defaultCohereBaseURL         = "https://api.cohere.com/v2"
	defaultCohereModels          = "command-r7b-12-2024,command-r-plus,command-r,command-r7b"
	defaultCohereTemperature     = 0.6
	defaultPublisherDomain       = "beyondchats.com"
	defaultCrawlStartURL         = "https://beyondchats.com/blogs/"
	defaultCrawlLimit            = 5
	defaultSearchTimeoutSecs     = 10
	defaultFetchTimeoutSecs      = 15
	defaultGenerationTimeoutSecs = 90
)

// Config is loaded once at startup and passed by value to every component.
// Credentials are optional here; components report their absence when used.
type Config struct {
	Port                   string
	Environment            string
	LogLevel               string
	AllowedOrigins         []string
	DatabaseURL            string
	DatabaseAuthToken      string
	SerperAPIKey           string
	SerperBaseURL          string
	SerperMinInterval      time.Duration
	CohereAPIKey           string
	CohereBaseURL          string
	CohereModels           []string
	CohereTemperature      float64
	PublisherDomain        string
	CrawlStartURL          string
	CrawlLimit             int
	SearchTimeout          time.Duration
	FetchTimeout           time.Duration
	GenerationTimeout      time.Duration
	FetchBlockPrivateHosts bool
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Port:                   envOrDefault("PORT", defaultPort),
		Environment:            envOrDefault("APP_ENV", "development"),
		LogLevel:               envOrDefault("LOG_LEVEL", "info"),
		DatabaseURL:            envOrDefault("DATABASE_URL", defaultDatabaseURL),
		DatabaseAuthToken:      strings.TrimSpace(os.Getenv("DATABASE_AUTH_TOKEN")),
		SerperAPIKey:           strings.TrimSpace(os.Getenv("SERPER_API_KEY")),
		SerperBaseURL:          envOrDefault("SERPER_BASE_URL", defaultSerperBaseURL),
		SerperMinInterval:      time.Duration(intOrDefault("SERPER_MIN_INTERVAL_MS", 0)) * time.Millisecond,
		CohereAPIKey:           strings.TrimSpace(os.Getenv("COHERE_API_KEY")),
		CohereBaseURL:          envOrDefault("COHERE_BASE_URL", defaultCohereBaseURL),
		CohereTemperature:      floatOrDefault("COHERE_TEMPERATURE", defaultCohereTemperature),
		PublisherDomain:        strings.ToLower(envOrDefault("PUBLISHER_DOMAIN", defaultPublisherDomain)),
		CrawlStartURL:          envOrDefault("CRAWL_START_URL", defaultCrawlStartURL),
		CrawlLimit:             intOrDefault("CRAWL_LIMIT", defaultCrawlLimit),
		SearchTimeout:          secondsOrDefault("SEARCH_TIMEOUT_SECONDS", defaultSearchTimeoutSecs),
		FetchTimeout:           secondsOrDefault("FETCH_TIMEOUT_SECONDS", defaultFetchTimeoutSecs),
		GenerationTimeout:      secondsOrDefault("GENERATION_TIMEOUT_SECONDS", defaultGenerationTimeoutSecs),
		FetchBlockPrivateHosts: boolOrDefault("FETCH_BLOCK_PRIVATE_HOSTS", true),
	}

	origins := parseList(envOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins))
	if len(origins) == 0 {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must include at least one origin")
	}
	cfg.AllowedOrigins = origins

	models := parseList(envOrDefault("COHERE_MODELS", defaultCohereModels))
	if len(models) == 0 {
		return Config{}, errors.New("COHERE_MODELS must include at least one model")
	}
	cfg.CohereModels = models

	if cfg.CrawlLimit <= 0 {
		return Config{}, errors.New("CRAWL_LIMIT must be > 0")
	}
	if strings.HasPrefix(cfg.DatabaseURL, "libsql://") && cfg.DatabaseAuthToken == "" {
		return Config{}, errors.New("DATABASE_AUTH_TOKEN is required for libsql:// URLs")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func boolOrDefault(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func intOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func floatOrDefault(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func secondsOrDefault(key string, fallback int) time.Duration {
	seconds := intOrDefault(key, fallback)
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
