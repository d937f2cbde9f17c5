// Package config loads the service configuration once at startup. Nothing
// else in the service reads the environment; the resulting Config is passed
// explicitly to the components that need it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"service-bootstrap/internal/db"
)

// Runtime modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvTest        = "test"
)

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// RateLimitConfig is a per-client token bucket. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BuildConfig identifies the running binary. It is normally stamped by the
// deployment through APP_VERSION and APP_COMMIT.
type BuildConfig struct {
	Version string `yaml:"version"`
	Commit  string `yaml:"commit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the whole service configuration.
type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	CORS      CORSConfig      `yaml:"cors"`
	BodyLimit int64           `yaml:"bodyLimit"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Log       LogConfig       `yaml:"log"`
	Build     BuildConfig     `yaml:"build"`
	DB        db.Config       `yaml:"db"`

	// Bootstrap runs migrations, procedures and seed data at startup.
	Bootstrap bool `yaml:"bootstrap"`
	// SQLDir replaces the embedded bootstrap tree when set.
	SQLDir string `yaml:"sqlDir"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Env: EnvDevelopment,
		HTTP: HTTPConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		BodyLimit: 10 << 20,
		RateLimit: RateLimitConfig{RPS: 0, Burst: 20},
		Log:       LogConfig{Level: "info"},
		Build:     BuildConfig{Version: "dev", Commit: "unknown"},
		DB:        db.DefaultConfig(),
	}
}

// IsProduction reports whether client-facing error detail must be masked.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and environment overrides, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	v := NewValidator()
	ApplyEnv(&cfg, v)
	cfg.validate(v)
	return cfg, v.Err()
}

// LoadFile merges the YAML document at path over cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from the environment. Unparsable values are
// reported to v and leave the field unchanged.
func ApplyEnv(cfg *Config, v *Validator) {
	if s := os.Getenv("APP_ENV"); s != "" {
		cfg.Env = strings.ToLower(strings.TrimSpace(s))
	}
	if s := os.Getenv("PORT"); s != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(s, ":")
	}
	if s := os.Getenv("ADDR"); s != "" {
		cfg.HTTP.Addr = s
	}
	if s := os.Getenv("ALLOWED_ORIGINS"); s != "" {
		cfg.CORS.AllowedOrigins = splitList(s)
	}
	envInt64(v, "BODY_LIMIT_BYTES", &cfg.BodyLimit)
	envFloat(v, "RATE_LIMIT_RPS", &cfg.RateLimit.RPS)
	envInt(v, "RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)
	envString("APP_VERSION", &cfg.Build.Version)
	envString("APP_COMMIT", &cfg.Build.Commit)

	envString("DB_HOST", &cfg.DB.Host)
	envInt(v, "DB_PORT", &cfg.DB.Port)
	envString("DB_NAME", &cfg.DB.Name)
	envString("DB_USER", &cfg.DB.User)
	envString("DB_PASSWORD", &cfg.DB.Password)
	envString("DB_SSLMODE", &cfg.DB.SSLMode)
	envInt(v, "DB_MAX_CONNS", &cfg.DB.MaxConns)
	envBool(v, "DB_BOOTSTRAP", &cfg.Bootstrap)
	envString("DB_SQL_DIR", &cfg.SQLDir)
}

func (c Config) validate(v *Validator) {
	v.ValidateEnum("APP_ENV", c.Env, []string{EnvDevelopment, EnvProduction, EnvStaging, EnvTest})
	v.ValidateAddr("ADDR", c.HTTP.Addr)
	for _, origin := range c.CORS.AllowedOrigins {
		if origin != "*" {
			v.ValidateURL("ALLOWED_ORIGINS", origin)
		}
	}
	if c.BodyLimit <= 0 {
		v.AddError("BODY_LIMIT_BYTES", "must be a positive integer")
	}
	if c.RateLimit.RPS < 0 {
		v.AddError("RATE_LIMIT_RPS", "must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		v.AddError("RATE_LIMIT_BURST", "must be a positive integer when rate limiting is enabled")
	}
	v.ValidateEnum("LOG_LEVEL", c.Log.Level, []string{"", "debug", "info", "warn", "error"})
	v.ValidateEnum("LOG_FORMAT", c.Log.Format, []string{"", "json", "text"})

	if c.DB.Host == "" {
		v.AddError("DB_HOST", "required")
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		v.AddError("DB_PORT", "port must be between 1 and 65535")
	}
	if c.DB.MaxConns <= 0 {
		v.AddError("DB_MAX_CONNS", "must be a positive integer")
	}
	if c.IsProduction() && c.DB.Password == "" {
		v.AddError("DB_PASSWORD", "required in production")
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

func envInt(v *Validator, key string, dst *int) {
	s := os.Getenv(key)
	if s == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}
	*dst = n
}

func envInt64(v *Validator, key string, dst *int64) {
	s := os.Getenv(key)
	if s == "" {
		return
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}
	*dst = n
}

func envFloat(v *Validator, key string, dst *float64) {
	s := os.Getenv(key)
	if s == "" {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		v.AddError(key, "must be a number")
		return
	}
	*dst = f
}

func envBool(v *Validator, key string, dst *bool) {
	s := os.Getenv(key)
	if s == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		v.AddError(key, "must be true or false")
		return
	}
	*dst = b
}
