package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Console   ServerConfig
	Inventory InventoryConfig
	Poll      PollConfig
	Breaker   BreakerConfig
	Kafka     KafkaConfig
	Log       LogConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
	// Debug keeps gin in debug mode even in production.
	Debug       bool
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// InventoryConfig points the console at the authoritative inventory service.
type InventoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PollConfig struct {
	Interval time.Duration
	// Minimum spacing between focus-triggered refreshes.
	FocusMinInterval time.Duration
	CycleTimeout     time.Duration
}

type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	Retries  int
}

// Enabled is false when no brokers are configured; events are then only logged.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "medrestock"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
			Debug:       getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Addr:            getEnv("INVENTORY_ADDR", ":9091"),
			ReadTimeout:     getEnvDuration("INVENTORY_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("INVENTORY_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("INVENTORY_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Console: ServerConfig{
			Addr:            getEnv("CONSOLE_ADDR", ":8080"),
			ReadTimeout:     getEnvDuration("CONSOLE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CONSOLE_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("CONSOLE_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Inventory: InventoryConfig{
			BaseURL: getEnv("INVENTORY_BASE_URL", "http://localhost:9091/api/v1"),
			Timeout: getEnvDuration("INVENTORY_TIMEOUT", 10*time.Second),
		},
		Poll: PollConfig{
			Interval:         getEnvDuration("POLL_INTERVAL", 5*time.Minute),
			FocusMinInterval: getEnvDuration("POLL_FOCUS_MIN_INTERVAL", 2*time.Second),
			CycleTimeout:     getEnvDuration("POLL_CYCLE_TIMEOUT", 30*time.Second),
		},
		Breaker: BreakerConfig{
			MaxRequests:         getEnvUint32("BREAKER_MAX_REQUESTS", 1),
			Interval:            getEnvDuration("BREAKER_INTERVAL", time.Minute),
			Timeout:             getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
			ConsecutiveFailures: getEnvUint32("BREAKER_CONSECUTIVE_FAILURES", 5),
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvSlice("KAFKA_BROKERS", nil),
			Topic:    getEnv("KAFKA_TOPIC_RESTOCK", "inventory.restock"),
			ClientID: getEnv("KAFKA_CLIENT_ID", "inventoryd"),
			Retries:  getEnvInt("KAFKA_RETRIES", 3),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "console"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if u, err := url.Parse(cfg.Inventory.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "INVENTORY_BASE_URL must be an absolute URL")
	}
	if cfg.Poll.Interval <= 0 {
		errs = append(errs, "POLL_INTERVAL must be positive")
	}
	if cfg.Poll.CycleTimeout <= 0 {
		errs = append(errs, "POLL_CYCLE_TIMEOUT must be positive")
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		errs = append(errs, "BREAKER_CONSECUTIVE_FAILURES must be at least 1")
	}
	if cfg.Kafka.Enabled() && cfg.Kafka.Topic == "" {
		errs = append(errs, "KAFKA_TOPIC_RESTOCK is required when KAFKA_BROKERS is set")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		errs = append(errs, "LOG_FORMAT must be json or console")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvUint32 falls back on negative or out-of-range values instead of
// letting them wrap around.
func getEnvUint32(key string, fallback uint32) uint32 {
	if v, ok := os.LookupEnv(key); ok {
		if u, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32); err == nil {
			return uint32(u)
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
