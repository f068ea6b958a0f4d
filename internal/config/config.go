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

// Config contains runtime configuration values.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	MemoryStore     bool
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	PasswordAlgo    string
	BcryptCost      int
	LogLevel        string
	LogFormat       string
	RateLimitRPS    float64
	RateLimitBurst  int
	CORSOrigins     []string
	CleanupTimeout  time.Duration
	ShutdownTimeout time.Duration
	Assets          AssetConfig
}

// AssetConfig describes the S3-compatible bucket holding organization logos.
type AssetConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether an asset bucket was configured.
func (a AssetConfig) Enabled() bool { return a.Bucket != "" }

// Load reads configuration from the environment, after an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getEnv("HIREHUB_HTTP_ADDR", ":8080"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("HIREHUB_PG_DSN")),
		MemoryStore:     getBool("HIREHUB_MEMORY_STORE", false),
		JWTSecret:       os.Getenv("HIREHUB_JWT_SECRET"),
		JWTIssuer:       getEnv("HIREHUB_JWT_ISSUER", "hirehub"),
		TokenTTL:        getDuration("HIREHUB_TOKEN_TTL", 7*24*time.Hour),
		PasswordAlgo:    getEnv("HIREHUB_PASSWORD_ALGO", "bcrypt"),
		BcryptCost:      getInt("HIREHUB_BCRYPT_COST", 10),
		LogLevel:        getEnv("HIREHUB_LOG_LEVEL", "info"),
		LogFormat:       getEnv("HIREHUB_LOG_FORMAT", "json"),
		RateLimitRPS:    getFloat("HIREHUB_RATE_LIMIT_RPS", 20),
		RateLimitBurst:  getInt("HIREHUB_RATE_LIMIT_BURST", 40),
		CORSOrigins:     getList("HIREHUB_CORS_ORIGINS", []string{"*"}),
		CleanupTimeout:  getDuration("HIREHUB_ASSET_CLEANUP_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("HIREHUB_SHUTDOWN_TIMEOUT", 10*time.Second),
		Assets: AssetConfig{
			Bucket:          strings.TrimSpace(os.Getenv("HIREHUB_ASSET_BUCKET")),
			Region:          getEnv("HIREHUB_ASSET_REGION", "us-east-1"),
			Endpoint:        os.Getenv("HIREHUB_ASSET_ENDPOINT"),
			PublicURL:       os.Getenv("HIREHUB_ASSET_PUBLIC_URL"),
			AccessKeyID:     os.Getenv("HIREHUB_ASSET_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("HIREHUB_ASSET_SECRET_KEY"),
		},
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("HIREHUB_JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && !cfg.MemoryStore {
		return Config{}, errors.New("HIREHUB_PG_DSN is required unless HIREHUB_MEMORY_STORE is set")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("HIREHUB_TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		var cleaned []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
