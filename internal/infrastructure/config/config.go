package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Email       EmailConfig     `mapstructure:"email"`
	Transfers   TransfersConfig `mapstructure:"transfers"`
	Explorers   ExplorersConfig `mapstructure:"explorers"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	AccessTTL int    `mapstructure:"access_token_ttl"`
	Issuer    string `mapstructure:"issuer"`
}

type EmailConfig struct {
	Provider  string `mapstructure:"provider"` // "sendgrid" or "" (log only)
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// TransfersConfig contains the transfer processing pipeline knobs
type TransfersConfig struct {
	// RateLifespanSeconds is how long a fixed currency rate stays usable
	RateLifespanSeconds int `mapstructure:"rate_lifespan_seconds"`
	// LifespanDays is how long a pending deposit waits for on-chain activity
	LifespanDays int `mapstructure:"lifespan_days"`
	// MaxAttemptsLimit is the scan attempt ceiling per transfer
	MaxAttemptsLimit int `mapstructure:"max_attempts_limit"`
	// ScanBatchSize caps how many transfers one processing run enqueues
	ScanBatchSize int `mapstructure:"scan_batch_size"`
	// Cron expressions; an empty expression disables the job
	ExpirySweepCron    string `mapstructure:"expiry_sweep_cron"`
	ProcessingScanCron string `mapstructure:"processing_scan_cron"`
	RateSweepCron      string `mapstructure:"rate_sweep_cron"`
	// Withdrawal one-time code settings
	CodeLength              int `mapstructure:"code_length"`
	CodeTTLMinutes          int `mapstructure:"code_ttl_minutes"`
	CodeCooldownSeconds     int `mapstructure:"code_cooldown_seconds"`
	// Per-chain minimum confirmations before a deposit counts as processed
	Confirmations ConfirmationsConfig `mapstructure:"confirmations"`
}

// ConfirmationsConfig holds minimum confirmation thresholds per token type
type ConfirmationsConfig struct {
	Bep20   int64 `mapstructure:"bep20"`
	Erc20   int64 `mapstructure:"erc20"`
	Trc20   int64 `mapstructure:"trc20"`
	Bitcoin int64 `mapstructure:"bitcoin"`
}

// ExplorersConfig holds the per-chain explorer API settings
type ExplorersConfig struct {
	BscScan   ExplorerConfig `mapstructure:"bscscan"`
	EtherScan ExplorerConfig `mapstructure:"etherscan"`
	TronScan  ExplorerConfig `mapstructure:"tronscan"`
	BtcScan   ExplorerConfig `mapstructure:"btcscan"`
}

// ExplorerConfig holds settings for a single blockchain explorer
type ExplorerConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	// Read from config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Build database URL if not provided
	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.rate_limit_per_min", 100)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "investments")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	// JWT defaults
	viper.SetDefault("jwt.access_token_ttl", 604800) // 7 days
	viper.SetDefault("jwt.issuer", "investments")

	// Email defaults
	viper.SetDefault("email.provider", "")
	viper.SetDefault("email.from_email", "no-reply@example.com")
	viper.SetDefault("email.from_name", "Investments")

	// Transfer pipeline defaults
	viper.SetDefault("transfers.rate_lifespan_seconds", 600)
	viper.SetDefault("transfers.lifespan_days", 1)
	viper.SetDefault("transfers.max_attempts_limit", 5)
	viper.SetDefault("transfers.scan_batch_size", 100)
	viper.SetDefault("transfers.expiry_sweep_cron", "*/10 * * * *")
	viper.SetDefault("transfers.processing_scan_cron", "*/5 * * * *")
	viper.SetDefault("transfers.rate_sweep_cron", "*/15 * * * *")
	viper.SetDefault("transfers.code_length", 6)
	viper.SetDefault("transfers.code_ttl_minutes", 10)
	viper.SetDefault("transfers.code_cooldown_seconds", 60)
	viper.SetDefault("transfers.confirmations.bep20", 15)
	viper.SetDefault("transfers.confirmations.erc20", 12)
	viper.SetDefault("transfers.confirmations.trc20", 19)
	viper.SetDefault("transfers.confirmations.bitcoin", 2)

	// Explorer defaults
	viper.SetDefault("explorers.bscscan.base_url", "https://api.bscscan.com")
	viper.SetDefault("explorers.bscscan.timeout", 30)
	viper.SetDefault("explorers.etherscan.base_url", "https://api.etherscan.io")
	viper.SetDefault("explorers.etherscan.timeout", 30)
	viper.SetDefault("explorers.tronscan.base_url", "https://apilist.tronscanapi.com")
	viper.SetDefault("explorers.tronscan.timeout", 30)
	viper.SetDefault("explorers.btcscan.base_url", "https://blockstream.info/api")
	viper.SetDefault("explorers.btcscan.timeout", 30)
}

func overrideFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("server.port", p)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		viper.Set("database.url", url)
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		viper.Set("redis.host", host)
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		viper.Set("jwt.secret", secret)
	}

	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		viper.Set("email.api_key", key)
	}

	if key := os.Getenv("BSCSCAN_API_KEY"); key != "" {
		viper.Set("explorers.bscscan.api_key", key)
	}
	if key := os.Getenv("ETHERSCAN_API_KEY"); key != "" {
		viper.Set("explorers.etherscan.api_key", key)
	}
	if key := os.Getenv("TRONSCAN_API_KEY"); key != "" {
		viper.Set("explorers.tronscan.api_key", key)
	}
}

func validate(cfg *Config) error {
	if cfg.Environment == "production" && cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required in production")
	}
	if cfg.Transfers.MaxAttemptsLimit <= 0 {
		return fmt.Errorf("transfers.max_attempts_limit must be positive")
	}
	if cfg.Transfers.RateLifespanSeconds <= 0 {
		return fmt.Errorf("transfers.rate_lifespan_seconds must be positive")
	}
	if cfg.Transfers.LifespanDays <= 0 {
		return fmt.Errorf("transfers.lifespan_days must be positive")
	}
	return nil
}
