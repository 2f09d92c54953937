package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	// StoreBackend selects where record-store keys live: sqlite, redis or memory.
	StoreBackend string
	DatabasePath string
	RedisURL     string
	RedisPrefix  string

	JWTSecret     string
	SessionTTL    time.Duration
	BcryptCost    int
	AdminEmail    string
	AdminPassword string

	// AllowedOrigins controls CORS. Empty means all origins are permitted.
	AllowedOrigins []string

	PublicBaseURL   string
	DefaultDialCode string
	Timezone        string
	PaymentDelay    time.Duration

	RemindersEnabled bool
	RemindOffsets    []time.Duration
}

// Load reads configuration from environment variables with defaults.
// A .env file is loaded when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:             getEnv("ADDR", ":8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
		DatabasePath:     getEnv("DATABASE_PATH", "myrobot.db"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:      getEnv("REDIS_PREFIX", ""),
		JWTSecret:        getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		BcryptCost:       getEnvInt("BCRYPT_COST", 10),
		AdminEmail:       strings.ToLower(getEnv("ADMIN_EMAIL", "admin@myrobot.academy")),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "admin123"), // change in production
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "")),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DefaultDialCode:  getEnv("DEFAULT_DIAL_CODE", "1"),
		Timezone:         getEnv("TIMEZONE", "UTC"),
		PaymentDelay:     time.Duration(getEnvInt("PAYMENT_DELAY_MS", 1500)) * time.Millisecond,
		RemindersEnabled: getEnv("ENABLE_REMINDERS", "") == "1",
		RemindOffsets:    parseOffsets(getEnv("REMIND_OFFSETS", "")),
	}
}

// Location resolves Timezone, falling back to UTC when tzdata is missing.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseOffsets reads a list like "24h,2h,1h". Defaults to 24h and 2h.
func parseOffsets(raw string) []time.Duration {
	def := []time.Duration{24 * time.Hour, 2 * time.Hour}
	if strings.TrimSpace(raw) == "" {
		return def
	}
	out := make([]time.Duration, 0, 4)
	for _, p := range splitList(raw) {
		d, err := time.ParseDuration(p)
		if err == nil && d > 0 {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
