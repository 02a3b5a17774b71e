package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string        `mapstructure:"app_name" validate:"required"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int64         `mapstructure:"timeout_seconds" validate:"gt=0"`
	Timeout        time.Duration `mapstructure:"-"`
	MaxRedirects   int           `mapstructure:"max_redirects" validate:"gte=0,lte=50"`
	UserAgent      string        `mapstructure:"user_agent"`
	AccessToken    string        `mapstructure:"access_token"`
	AllowedHosts   []string      `mapstructure:"allowed_hosts" validate:"dive,hostname_port|hostname"`

	BackingStore           string        `mapstructure:"backing_store" validate:"oneof=none memory bbolt"`
	BBoltPath              string        `mapstructure:"bbolt_path" validate:"required_if=BackingStore bbolt"`
	BackingStoreTTLSeconds int64         `mapstructure:"backing_store_ttl_seconds" validate:"gt=0"`
	BackingStoreTTL        time.Duration `mapstructure:"-"`

	ProbePath   string `mapstructure:"probe_path" validate:"required"`
	ProbeKind   string `mapstructure:"probe_kind" validate:"required"`
	ProbeMethod string `mapstructure:"probe_method" validate:"oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables and configs/.env.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "restyadapter-probe")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("max_redirects", 10)
	v.SetDefault("user_agent", "restyadapter/1.0")
	v.SetDefault("access_token", "")
	v.SetDefault("allowed_hosts", []string{})
	v.SetDefault("backing_store", "none")
	v.SetDefault("bbolt_path", "./data/backing_store.db")
	v.SetDefault("backing_store_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("probe_path", "/")
	v.SetDefault("probe_kind", "stream")
	v.SetDefault("probe_method", "GET")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.BackingStore = strings.ToLower(strings.TrimSpace(cfg.BackingStore))
	cfg.ProbeMethod = strings.ToUpper(strings.TrimSpace(cfg.ProbeMethod))
	cfg.AllowedHosts = splitHosts(cfg.AllowedHosts)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	cfg.BackingStoreTTL = time.Duration(cfg.BackingStoreTTLSeconds) * time.Second
	return &cfg, nil
}

// splitHosts flattens comma separated entries and drops blanks.
func splitHosts(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, h := range strings.Split(entry, ",") {
			if h = strings.TrimSpace(h); h != "" {
				out = append(out, h)
			}
		}
	}
	return out
}
