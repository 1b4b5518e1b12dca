package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the trend engine.
type Config struct {
	Mode string // "live" or "paper"
	Port string

	// Venue API
	VenueBaseURL   string
	VenueWSURL     string
	VenueAPIKey    string
	VenueAPISecret string

	// Instruments
	Instruments     []string
	InstrumentsFile string // optional YAML with per-instrument overrides

	// Strategy / sizing
	RiskFraction float64 // fraction of equity risked per trade
	Leverage     float64
	RRRatio      float64 // reward:risk ratio
	ADXThreshold float64

	// Daily risk gate
	MaxDailyLossFraction float64
	MaxTradesPerDay      int
	Timezone             string

	// Engine loop
	CycleInterval     time.Duration
	HeartbeatInterval time.Duration

	// Paper trading
	PaperStartCapital float64

	// Telegram notifications
	TelegramToken  string
	TelegramChatID string

	// Database
	DBPath string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Mode:                 strings.ToLower(getEnv("MODE", "paper")),
		Port:                 getEnv("PORT", "8080"),
		VenueBaseURL:         getEnv("VENUE_BASE_URL", "https://api.venue.example"),
		VenueWSURL:           getEnv("VENUE_WS_URL", ""),
		VenueAPIKey:          os.Getenv("VENUE_API_KEY"),
		VenueAPISecret:       os.Getenv("VENUE_API_SECRET"),
		Instruments:          splitAndTrim(getEnv("INSTRUMENTS", "BTCUSDT,ETHUSDT,SOLUSDT")),
		InstrumentsFile:      getEnv("INSTRUMENTS_FILE", ""),
		RiskFraction:         getEnvFloat("RISK_FRACTION", 0.01),
		Leverage:             getEnvFloat("LEVERAGE", 1),
		RRRatio:              getEnvFloat("RR_RATIO", 2),
		ADXThreshold:         getEnvFloat("ADX_THRESHOLD", 20),
		MaxDailyLossFraction: getEnvFloat("MAX_DAILY_LOSS_FRACTION", 0.02),
		MaxTradesPerDay:      getEnvInt("MAX_TRADES_PER_DAY", 5),
		Timezone:             getEnv("TIMEZONE", "UTC"),
		CycleInterval:        getEnvDuration("CYCLE_INTERVAL", time.Minute),
		HeartbeatInterval:    getEnvDuration("HEARTBEAT_INTERVAL", time.Hour),
		PaperStartCapital:    getEnvFloat("PAPER_START_CAPITAL", 10000),
		TelegramToken:        os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:       os.Getenv("TELEGRAM_CHAT_ID"),
		DBPath:               getEnv("DB_PATH", "./data/trend.db"),
	}, nil
}

// Live reports whether the engine trades against a real venue.
func (c *Config) Live() bool {
	return c.Mode == "live"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
