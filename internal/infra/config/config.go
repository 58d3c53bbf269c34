package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For value normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderPushover = "pushover"
	ProviderTelegram = "telegram"

	DefaultPushoverURL = "https://api.pushover.net/1/messages.json"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Environment string
	LogLevel    string

	HTTPAddr   string
	CORSOrigin string

	DBDriver    string
	DatabaseURL string

	TickInterval time.Duration

	PushProvider      string
	PushoverToken     string
	PushoverUser      string
	PushoverURL       string
	PushTimeout       time.Duration
	PushRatePerMinute int

	TelegramToken   string
	TelegramChatID  int64
	AdminTelegramID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Environment = strings.ToLower(withDefault(getenv("ENVIRONMENT"), "development"))
	cfg.LogLevel = strings.ToLower(withDefault(getenv("LOG_LEVEL"), "info"))
	cfg.HTTPAddr = withDefault(getenv("HTTP_ADDR"), ":8000")
	cfg.CORSOrigin = withDefault(getenv("CORS_ORIGIN"), "*")

	cfg.DBDriver = strings.ToLower(withDefault(getenv("DB_DRIVER"), "sqlite"))
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected sqlite or postgres", cfg.DBDriver)
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		if cfg.DBDriver == "postgres" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		cfg.DatabaseURL = "data/db.sqlite"
	}

	cfg.TickInterval, err = parseDuration(getenv, "TICK_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.PushProvider = strings.ToLower(withDefault(getenv("PUSH_PROVIDER"), ProviderPushover))
	if cfg.PushProvider != ProviderPushover && cfg.PushProvider != ProviderTelegram {
		return nil, fmt.Errorf("invalid PUSH_PROVIDER %q: expected pushover or telegram", cfg.PushProvider)
	}
	cfg.PushoverToken = getenv("PUSHOVER_TOKEN")
	cfg.PushoverUser = getenv("PUSHOVER_USER")
	cfg.PushoverURL = withDefault(getenv("PUSHOVER_URL"), DefaultPushoverURL)

	cfg.PushTimeout, err = parseDuration(getenv, "PUSH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	rate, err := parseInt(getenv, "PUSH_RATE_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid PUSH_RATE_PER_MINUTE: must be positive")
	}
	cfg.PushRatePerMinute = int(rate)

	cfg.TelegramToken = getenv("TELEGRAM_TOKEN")
	if cfg.TelegramChatID, err = parseInt(getenv, "TELEGRAM_CHAT_ID", 0); err != nil {
		return nil, err
	}
	if cfg.AdminTelegramID, err = parseInt(getenv, "ADMIN_TELEGRAM_ID", 0); err != nil {
		return nil, err
	}

	if cfg.PushProvider == ProviderTelegram && (cfg.TelegramToken == "" || cfg.TelegramChatID == 0) {
		return nil, fmt.Errorf("PUSH_PROVIDER=telegram requires TELEGRAM_TOKEN and TELEGRAM_CHAT_ID")
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func parseInt(getenv func(string) string, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
