// Package config loads server settings from the environment (and a .env
// file when one is present).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Host string
	Port string
	Env  string

	SessionSecret    string
	SessionGenerated bool
	SessionTTL       time.Duration

	DatabaseURL string
	Store       string // "memory" or "postgres"
	AutoMigrate bool

	AdminPassword string
	UploadDir     string
	PublicDir     string
	NumWorkers    int

	RedisAddress     string
	RateLimitEnabled bool
	RateLimitMax     int64
	RateLimitWindow  time.Duration

	CORSAllowedOrigins []string
	LogLevel           string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	cfg := &Config{
		Host:          getEnv("HOST", "0.0.0.0"),
		Port:          getEnv("PORT", "5000"),
		Env:           strings.ToLower(getEnv("APP_ENV", getEnv("NODE_ENV", "development"))),
		SessionTTL:    24 * time.Hour,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AutoMigrate:   getBool("AUTO_MIGRATE", true),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		PublicDir:     getEnv("PUBLIC_DIR", "./public"),
		NumWorkers:    getInt("NUM_WORKERS", 5),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		RateLimitEnabled: getBool("RATE_LIMIT_ENABLED", false),
		RateLimitMax:     int64(getInt("RATE_LIMIT_MAX_REQUESTS", 20)),
		RateLimitWindow:  time.Duration(getInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		CORSAllowedOrigins: splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Env == "development" {
		cfg.Env = "production"
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		cfg.SessionGenerated = true
	}

	defaultUploads := "uploads"
	if cfg.IsProduction() {
		defaultUploads = "/tmp/uploads"
	}
	cfg.UploadDir = getEnv("UPLOAD_DIR", defaultUploads)

	cfg.Store = strings.ToLower(os.Getenv("STORE"))
	if cfg.Store == "" {
		cfg.Store = "memory"
		if cfg.DatabaseURL != "" {
			cfg.Store = "postgres"
		}
	}
	if cfg.NumWorkers < 1 {
		cfg.NumWorkers = 1
	}

	return cfg, envLoaded
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Addr is the listen address.
func (c *Config) Addr() string { return c.Host + ":" + c.Port }

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "cashcrash-secret-key-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "cashcrash-" + hex.EncodeToString(buf)
}
