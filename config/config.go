package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string        `mapstructure:"PORT"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`

	RawgAPIKey  string `mapstructure:"RAWG_API_KEY"`
	RawgBaseURL string `mapstructure:"RAWG_BASE_URL"`

	RedisURL        string        `mapstructure:"REDIS_URL"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	LoginRateLimit  int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	GinMode        string `mapstructure:"GIN_MODE"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	UseHTTPS    bool   `mapstructure:"USE_HTTPS"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var defaults = map[string]interface{}{
	"PORT":              "5000",
	"DATABASE_URL":      "",
	"JWT_SECRET":        "",
	"TOKEN_TTL":         "168h",
	"RAWG_API_KEY":      "",
	"RAWG_BASE_URL":     "https://api.rawg.io/api",
	"REDIS_URL":         "",
	"REDIS_PASSWORD":    "",
	"LOGIN_RATE_LIMIT":  10,
	"LOGIN_RATE_WINDOW": "1m",
	"LOG_LEVEL":         "info",
	"GIN_MODE":          "debug",
	"ALLOWED_ORIGINS":   "http://localhost:3000,http://localhost:5173",
	"USE_HTTPS":         false,
	"TLS_CERT_FILE":     "",
	"TLS_KEY_FILE":      "",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Origins splits ALLOWED_ORIGINS into a list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}
