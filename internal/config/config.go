package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	DatabaseURL    string
	MetricsPort    string
	CategoriesFile string
	Redis          RedisConfig
	Telegram       TelegramConfig
	Source         SourceConfig
	Scrape         ScrapeConfig
	Logger         LoggerConfig
}

type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
	SiteURL  string
}

type SourceConfig struct {
	BaseURL       string
	PageItemCount int
	Timeout       time.Duration
	RequestDelay  time.Duration
	CategoryDelay time.Duration
	MaxRetries    int
	BackoffBase   time.Duration
	DefaultBrand  string
}

type ScrapeConfig struct {
	RecordVariants       bool
	NotifyNewProducts    bool
	NotifyPriceDrops     bool
	NotifyPriceIncreases bool
	NotifyStockChanges   bool
	PriceDropThreshold   float64
	LowStockThreshold    int
	SendSummary          bool
	TopDrops             int
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

func Load() *Config {
	// Carrega .env da raiz do projeto
	_ = godotenv.Load("../../.env")
	// Se não encontrar, tenta no diretório atual
	_ = godotenv.Load()

	delay := getEnvDuration("SCRAPE_DELAY", 1500*time.Millisecond)
	return &Config{
		AppEnv:         getEnv("APP_ENV", "production"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MetricsPort:    os.Getenv("METRICS_PORT"),
		CategoriesFile: getEnv("CATEGORIES_FILE", "data/categories.json"),
		Redis: RedisConfig{
			URL:     os.Getenv("REDIS_URL"),
			LockTTL: getEnvDuration("SCRAPE_LOCK_TTL", 2*time.Hour),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
			APIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
			SiteURL:  getEnv("SITE_URL", "https://www.avva.com.tr"),
		},
		Source: SourceConfig{
			BaseURL:       getEnv("SOURCE_BASE_URL", "https://www.avva.com.tr"),
			PageItemCount: getEnvInt("SOURCE_PAGE_SIZE", 48),
			Timeout:       getEnvDuration("SOURCE_TIMEOUT", 15*time.Second),
			RequestDelay:  delay,
			CategoryDelay: getEnvDuration("SCRAPE_CATEGORY_DELAY", time.Second),
			MaxRetries:    getEnvInt("SOURCE_MAX_RETRIES", 3),
			BackoffBase:   getEnvDuration("SOURCE_BACKOFF_BASE", delay),
			DefaultBrand:  getEnv("DEFAULT_BRAND", "AVVA"),
		},
		Scrape: ScrapeConfig{
			RecordVariants:       getEnvBool("RECORD_VARIANTS", false),
			NotifyNewProducts:    getEnvBool("NOTIFY_NEW_PRODUCTS", false),
			NotifyPriceDrops:     getEnvBool("NOTIFY_PRICE_DROPS", true),
			NotifyPriceIncreases: getEnvBool("NOTIFY_PRICE_INCREASES", false),
			NotifyStockChanges:   getEnvBool("NOTIFY_STOCK_CHANGES", true),
			PriceDropThreshold:   getEnvFloat("PRICE_DROP_THRESHOLD", 5),
			LowStockThreshold:    getEnvInt("LOW_STOCK_THRESHOLD", 0),
			SendSummary:          getEnvBool("SEND_SUMMARY", true),
			TopDrops:             getEnvInt("TOP_DROPS", 5),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
	}
}

// Development reports whether the process runs in a development environment.
func (c *Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development") || strings.EqualFold(c.AppEnv, "dev")
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v, ok := os.LookupEnv(k); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func getEnvFloat(k string, d float64) float64 {
	if v, ok := os.LookupEnv(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func getEnvBool(k string, d bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

// getEnvDuration accepts Go durations ("1.5s") or plain milliseconds ("1500").
func getEnvDuration(k string, d time.Duration) time.Duration {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
