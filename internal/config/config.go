// Package config loads runtime settings from the environment (optionally
// seeded from a .env file) and holds the relay's fixed constants.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds every tunable of the relay process.
type Config struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	AllowedOrigins  []string      `mapstructure:"-"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	DatabaseDriver  string        `mapstructure:"database_driver"`
	DatabaseDSN     string        `mapstructure:"database_dsn"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	RedisChannel    string        `mapstructure:"redis_channel"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var keys = []string{
	"port", "mode", "log_level", "log_format", "session_ttl", "jwt_secret", "token_ttl",
	"allowed_origins", "max_message_size", "send_buffer", "rate_limit", "rate_burst",
	"database_driver", "database_dsn", "redis_addr", "redis_password", "redis_db", "redis_channel", "shutdown_timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("session_ttl", DefaultSessionTTL.String())
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "72h")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("max_message_size", 8192)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("rate_limit", 10)
	v.SetDefault("rate_burst", 20)
	v.SetDefault("database_driver", "postgres")
	v.SetDefault("database_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_channel", "boting:lifecycle")
	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("module", "config").Msg("no .env file, using process environment")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}
	return v
}

// FromViper decodes and sanitizes a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.AllowedOrigins = parseOrigins(v.GetString("allowed_origins"))
	if err := cfg.sanitize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when the environment sets nothing.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) sanitize() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		c.Mode = "release"
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 72 * time.Hour
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 8192
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AllowAllOrigins reports whether the origin allow-list contains "*".
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
