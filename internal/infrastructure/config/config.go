package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is built once at startup
// and passed to every component; nothing reads configuration ambiently.
type Config struct {
	App     AppConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Pricing PricingConfig
	Payment PaymentConfig
	CUPS    CUPSConfig
	Storage StorageConfig
	Watcher WatcherConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// PricingConfig holds the per-page rate, expressed as a decimal string so
// no float conversion happens before the money type takes over
type PricingConfig struct {
	PricePerPage string
}

// PaymentConfig holds Mercado Pago settings
type PaymentConfig struct {
	AccessToken string
	BaseURL     string
	PayerEmail  string
	Description string
	Timeout     time.Duration
}

// CUPSConfig holds the connection settings for the CUPS/IPP print server
type CUPSConfig struct {
	Host           string
	Port           int
	UseTLS         bool
	RequestTimeout time.Duration
}

// StorageConfig holds temporary upload storage settings
type StorageConfig struct {
	UploadDir string
}

// WatcherConfig controls the server-side payment watcher
type WatcherConfig struct {
	Enabled      bool
	PollInterval time.Duration
	MaxDuration  time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PRINT_ prefix (e.g. PRINT_PAYMENT_ACCESS_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Pricing: PricingConfig{
			PricePerPage: v.GetString("pricing.price_per_page"),
		},
		Payment: PaymentConfig{
			AccessToken: v.GetString("payment.access_token"),
			BaseURL:     v.GetString("payment.base_url"),
			PayerEmail:  v.GetString("payment.payer_email"),
			Description: v.GetString("payment.description"),
			Timeout:     v.GetDuration("payment.timeout"),
		},
		CUPS: CUPSConfig{
			Host:           v.GetString("cups.host"),
			Port:           v.GetInt("cups.port"),
			UseTLS:         v.GetBool("cups.use_tls"),
			RequestTimeout: v.GetDuration("cups.request_timeout"),
		},
		Storage: StorageConfig{
			UploadDir: v.GetString("storage.upload_dir"),
		},
		Watcher: WatcherConfig{
			Enabled:      v.GetBool("watcher.enabled"),
			PollInterval: v.GetDuration("watcher.poll_interval"),
			MaxDuration:  v.GetDuration("watcher.max_duration"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "print-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3001"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 50 << 20 // 50MB, uploads are whole PDFs
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Pricing.PricePerPage == "" {
		cfg.Pricing.PricePerPage = "0.50"
	}
	if cfg.Payment.BaseURL == "" {
		cfg.Payment.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.Payment.Description == "" {
		cfg.Payment.Description = "Serviço de Impressão"
	}
	if cfg.Payment.Timeout == 0 {
		cfg.Payment.Timeout = 30 * time.Second
	}
	if cfg.CUPS.Host == "" {
		cfg.CUPS.Host = "localhost"
	}
	if cfg.CUPS.Port == 0 {
		cfg.CUPS.Port = 631
	}
	if cfg.CUPS.RequestTimeout == 0 {
		cfg.CUPS.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Watcher.PollInterval == 0 {
		cfg.Watcher.PollInterval = 5 * time.Second
	}
	if cfg.Watcher.MaxDuration == 0 {
		cfg.Watcher.MaxDuration = 30 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Watcher.PollInterval < time.Second {
		return fmt.Errorf("watcher.poll_interval must be at least 1s")
	}

	if c.App.Env == "production" {
		if c.Payment.AccessToken == "" {
			return fmt.Errorf("payment.access_token is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}
