package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MARKETPLACE"

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("secret_key must be set")

type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
	Secret   string `mapstructure:"secret_key"`
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is believed.
	// Empty means the peer address is the client address.
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
	DB             DBConfig      `mapstructure:"db"`
	Session        SessionConfig `mapstructure:"session"`
	Images         ImagesConfig  `mapstructure:"images"`
	Reset          ResetConfig   `mapstructure:"reset"`
	Mail           MailConfig    `mapstructure:"mail"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	Secure bool   `mapstructure:"secure"`
}

type ImagesConfig struct {
	Dir            string `mapstructure:"dir"`
	DefaultAvatar  string `mapstructure:"default_avatar"`
	DefaultListing string `mapstructure:"default_listing"`
}

type ResetConfig struct {
	ExpirySeconds int     `mapstructure:"expiry_seconds"`
	RatePerMinute float64 `mapstructure:"rate_per_minute"`
	Burst         int     `mapstructure:"burst"`
}

// Expiry returns the reset token lifetime.
func (r ResetConfig) Expiry() time.Duration {
	return time.Duration(r.ExpirySeconds) * time.Second
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("page_size", 5)
	v.SetDefault("secret_key", "")
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("db.path", "app.db")
	v.SetDefault("session.name", "marketplace_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.secure", false)
	v.SetDefault("images.dir", "static/images")
	v.SetDefault("images.default_avatar", "default1.jpg")
	v.SetDefault("images.default_listing", "default2.jpg")
	v.SetDefault("reset.expiry_seconds", 1800)
	v.SetDefault("reset.rate_per_minute", 3.0)
	v.SetDefault("reset.burst", 3)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@marketplace.com")
}

// Load reads configs/config.yml (if present) under the given search paths and
// applies MARKETPLACE_* environment overrides, e.g. MARKETPLACE_DB_PATH.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SessionSecret is the cookie signing key; it falls back to secret_key.
func (c Config) SessionSecret() string {
	if c.Session.Secret != "" {
		return c.Session.Secret
	}
	return c.Secret
}

// Validate checks values that have no usable default.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return ErrMissingSecret
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Reset.ExpirySeconds <= 0 {
		return fmt.Errorf("reset.expiry_seconds must be positive, got %d", c.Reset.ExpirySeconds)
	}
	return nil
}
