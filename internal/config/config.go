package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissingSetting marks deployment misconfiguration. Startup must fail
// rather than serving requests that would error one by one.
var ErrMissingSetting = errors.New("config: missing required setting")

type Config struct {
	DatabaseURL string
	HTTPPort    string

	JWTSecret    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	SingleUseTTL time.Duration

	PermissionCacheTTL time.Duration

	LoginRatePerSecond int
	LoginRateBurst     int

	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the environment. godotenv.Load is expected
// to have run already (see cmd/api).
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HTTPPort:           envOr("HTTP_PORT", "8080"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTTL:          envDuration("JWT_EXPIRES_IN", 24*time.Hour),
		RefreshTTL:         envDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		SingleUseTTL:       envDuration("JWT_SINGLE_USE_EXPIRES_IN", time.Hour),
		PermissionCacheTTL: envDuration("PERMISSION_CACHE_TTL", 60*time.Second),
		LoginRatePerSecond: envInt("LOGIN_RATE_PER_SECOND", 5),
		LoginRateBurst:     envInt("LOGIN_RATE_BURST", 10),
		AdminEmail:         envOr("ADMIN_EMAIL", "admin@gatehouse.local"),
		AdminPassword:      envOr("ADMIN_PASSWORD", "changeme"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("%w: DATABASE_URL", ErrMissingSetting)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("%w: JWT_SECRET", ErrMissingSetting)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
