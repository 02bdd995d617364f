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
	AppEnv      string
	Port        string
	DatabaseURL string // optional; history persistence is skipped when empty

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OutlineModels     []string // ordered candidate list; empty means built-in defaults

	UnsplashAccessKey string
	PexelsAPIKey      string
	PixabayAPIKey     string

	OutputDir      string
	ImageCacheDir  string
	PlaceholderDir string
	GeoIPDBPath    string

	MaxConcurrentGenerations int64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	AllowedOrigins []string
	DefaultLocale  string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                   getEnv("APP_ENV", "development"),
		Port:                     getEnv("PORT", "8080"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		OpenRouterAPIKey:         os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:        getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OutlineModels:            splitList(os.Getenv("OUTLINE_MODELS")),
		UnsplashAccessKey:        os.Getenv("UNSPLASH_ACCESS_KEY"),
		PexelsAPIKey:             os.Getenv("PEXELS_API_KEY"),
		PixabayAPIKey:            os.Getenv("PIXABAY_API_KEY"),
		OutputDir:                getEnv("OUTPUT_DIR", "generated_decks"),
		ImageCacheDir:            getEnv("IMAGE_CACHE_DIR", "temp_images"),
		PlaceholderDir:           getEnv("PLACEHOLDER_DIR", "assets/placeholders"),
		GeoIPDBPath:              os.Getenv("GEOIP_DB_PATH"),
		MaxConcurrentGenerations: int64(getEnvInt("MAX_CONCURRENT_GENERATIONS", 3)),
		HTTPReadTimeout:          time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:         time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:          time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:          getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:           splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		DefaultLocale:            getEnv("DEFAULT_LOCALE", "en"),
	}

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 3
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
