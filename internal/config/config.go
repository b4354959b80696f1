package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	BaseURL    string
	Timezone   string
	CronSecret string
	JWTSecret  string

	IPHashSalt     string
	DeviceHashSalt string

	// Session lifecycle tunables. The retry cap and idempotency TTL are
	// deliberately configurable rather than baked-in constants.
	SessionWindow   time.Duration
	TokenRetryLimit int
	IdempotencyTTL  time.Duration

	// Rate limiting.
	StartLimit       int
	StartWindow      time.Duration
	SubmitIPLimit    int
	SubmitRollLimit  int
	SubmitWindow     time.Duration
	RateCacheTTL     time.Duration
	RateCacheSize    int
	RateCacheJanitor time.Duration
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "3000"),

		BaseURL:    os.Getenv("APP_BASE_URL"),
		Timezone:   getenv("TIMEZONE", "Asia/Kolkata"),
		CronSecret: os.Getenv("CRON_SECRET"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		IPHashSalt:     getenv("IP_HASH_SALT", "ip-salt"),
		DeviceHashSalt: getenv("DEVICE_HASH_SALT", "device-salt"),

		SessionWindow:   getduration("SESSION_WINDOW", 10*time.Minute),
		TokenRetryLimit: getint("TOKEN_RETRY_LIMIT", 5),
		IdempotencyTTL:  getduration("IDEMPOTENCY_TTL", 60*time.Second),

		StartLimit:       getint("START_RATE_LIMIT", 5),
		StartWindow:      getduration("START_RATE_WINDOW", 15*time.Minute),
		SubmitIPLimit:    getint("SUBMIT_IP_RATE_LIMIT", 60),
		SubmitRollLimit:  getint("SUBMIT_ROLL_RATE_LIMIT", 5),
		SubmitWindow:     getduration("SUBMIT_RATE_WINDOW", time.Minute),
		RateCacheTTL:     getduration("RATE_CACHE_TTL", 45*time.Second),
		RateCacheSize:    getint("RATE_CACHE_SIZE", 10000),
		RateCacheJanitor: getduration("RATE_CACHE_JANITOR_INTERVAL", 5*time.Minute),
	}
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getint(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
