package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration. Optional data providers are
// pointer fields: a nil provider is not configured and the feed chain skips it.
type Config struct {
	Server      ServerConfig
	Logging     LoggingConfig
	Broker      *ProviderConfig
	TradingView *ProviderConfig
	Realtime    *RealtimeConfig
	State       StateConfig
	Vault       VaultConfig
	Trading     TradingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level   string // debug, info, warn, error
	Console bool   // human-readable console output instead of JSON
}

// ProviderConfig describes a REST candle provider. Both fields must be present
// for the provider to be considered configured.
type ProviderConfig struct {
	DataURL string
	APIKey  string
	Timeout time.Duration
}

// RealtimeConfig describes the streaming broker feed. Credentials are only ever
// read from the environment (or Vault), never from request parameters.
type RealtimeConfig struct {
	Username  string
	Password  string
	AuthURL   string
	TicketURL string
	Timeout   time.Duration
}

// StateConfig selects the persistence backend for trade state blobs.
type StateConfig struct {
	Backend     string // "memory", "redis" or "postgres"
	RedisAddr   string
	RedisDB     int
	PostgresDSN string
}

// VaultConfig holds optional HashiCorp Vault settings for provider credentials.
type VaultConfig struct {
	Enabled    bool
	Address    string
	Token      string
	MountPath  string
	SecretPath string
}

// TradingConfig holds trade-management defaults.
type TradingConfig struct {
	DefaultMaxRisk   float64       // dollars risked per trade by default
	ConfirmDelay     time.Duration // CONFIRMING -> MANAGING delay
	GuidanceInterval time.Duration // how often an open trade is re-evaluated
}

// Load builds the configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvOrDefault("WEB_HOST", "0.0.0.0"),
			Port:            getEnvIntOrDefault("WEB_PORT", 8080),
			AllowedOrigins:  getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*"),
			ReadTimeout:     getEnvDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:   getEnvOrDefault("LOG_LEVEL", "info"),
			Console: getEnvOrDefault("LOG_CONSOLE", "false") == "true",
		},
		State: StateConfig{
			Backend:     getEnvOrDefault("STATE_BACKEND", "memory"),
			RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisDB:     getEnvIntOrDefault("REDIS_DB", 0),
			PostgresDSN: getEnvOrDefault("POSTGRES_DSN", ""),
		},
		Vault: VaultConfig{
			Enabled:    getEnvOrDefault("VAULT_ENABLED", "false") == "true",
			Address:    getEnvOrDefault("VAULT_ADDR", "http://localhost:8200"),
			Token:      getEnvOrDefault("VAULT_TOKEN", ""),
			MountPath:  getEnvOrDefault("VAULT_MOUNT_PATH", "secret"),
			SecretPath: getEnvOrDefault("VAULT_SECRET_PATH", "solotrading/providers"),
		},
		Trading: TradingConfig{
			DefaultMaxRisk:   getEnvFloatOrDefault("TRADING_DEFAULT_MAX_RISK", 500),
			ConfirmDelay:     getEnvDurationOrDefault("TRADING_CONFIRM_DELAY", 2*time.Second),
			GuidanceInterval: getEnvDurationOrDefault("TRADING_GUIDANCE_INTERVAL", 30*time.Second),
		},
	}

	if url, key := os.Getenv("BROKER_DATA_URL"), os.Getenv("BROKER_API_KEY"); url != "" && key != "" {
		cfg.Broker = &ProviderConfig{
			DataURL: url,
			APIKey:  key,
			Timeout: getEnvDurationOrDefault("BROKER_TIMEOUT", 5*time.Second),
		}
	}

	if url, key := os.Getenv("TRADINGVIEW_DATA_URL"), os.Getenv("TRADINGVIEW_API_KEY"); url != "" && key != "" {
		cfg.TradingView = &ProviderConfig{
			DataURL: url,
			APIKey:  key,
			Timeout: getEnvDurationOrDefault("TRADINGVIEW_TIMEOUT", 6*time.Second),
		}
	}

	if user, pass := os.Getenv("REALTIME_USERNAME"), os.Getenv("REALTIME_PASSWORD"); user != "" && pass != "" {
		cfg.Realtime = &RealtimeConfig{
			Username:  user,
			Password:  pass,
			AuthURL:   getEnvOrDefault("REALTIME_AUTH_URL", ""),
			TicketURL: getEnvOrDefault("REALTIME_TICKET_URL", ""),
			Timeout:   getEnvDurationOrDefault("REALTIME_TIMEOUT", 9*time.Second),
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
