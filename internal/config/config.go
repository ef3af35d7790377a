package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/viper"
)

var logger = loggo.GetLogger("console.config")

// DefaultPath is where Load looks for the optional config file.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Upstream struct {
		BaseURL        string `mapstructure:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"upstream"`

	Database DatabaseConfig `mapstructure:"database"`

	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Session struct {
		TTLMinutes int `mapstructure:"ttl_minutes"`
	} `mapstructure:"session"`

	Reports ObjectStorageConfig `mapstructure:"reports"`

	Logging struct {
		// Config is a loggo specification such as "<root>=INFO;console.upstream=DEBUG".
		Config string `mapstructure:"config"`
	} `mapstructure:"logging"`
}

// DatabaseConfig locates the Postgres audit database.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnectionString returns the pgx connection URL.
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ObjectStorageConfig is an S3 compatible bucket (AWS S3 or Cloudflare R2)
// that receives exported reports.
type ObjectStorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Enabled reports whether report export is configured.
func (o ObjectStorageConfig) Enabled() bool {
	return o.Bucket != ""
}

// UpstreamTimeout is the per-call timeout for the integration backend.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// SessionTTL is how long an idle session lives.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// RedisAddr is the host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Load reads the default config file and environment, exiting on error.
func Load() *Config {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	cfg, err := LoadFrom(DefaultPath)
	if err != nil {
		logger.Criticalf("[Config] %v", err)
		os.Exit(1)
	}
	return cfg
}

// LoadFrom reads path, if present, and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	// UPSTREAM_BASE_URL overrides upstream.base_url and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout_seconds", 30)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "access_console")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "access-console")
	v.SetDefault("session.ttl_minutes", 480)
	v.SetDefault("reports.bucket", "")
	v.SetDefault("reports.prefix", "reports/")
	v.SetDefault("reports.endpoint", "")
	v.SetDefault("reports.region", "auto")
	v.SetDefault("reports.access_key", "")
	v.SetDefault("reports.secret_key", "")
	v.SetDefault("logging.config", "<root>=INFO")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		logger.Infof("[Config] No config file at %s, using defaults", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Annotate(err, "config unmarshal")
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &cfg, nil
}

// applyEnvOverrides honours the short variable names used by the deployment
// manifests.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
		cfg.Database.Enabled = true
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if port := os.Getenv("REDIS_SERVICE_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Redis.Port = n
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
}

// Validate rejects a configuration the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.Secret == "${JWT_SECRET}" {
		return errors.NewNotValid(nil, "jwt.secret is empty (set JWT_SECRET)")
	}
	if c.Upstream.BaseURL == "" {
		return errors.NewNotValid(nil, "upstream.base_url is empty (set UPSTREAM_BASE_URL)")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return errors.NotValidf("upstream.timeout_seconds %d", c.Upstream.TimeoutSeconds)
	}
	if c.Session.TTLMinutes <= 0 {
		return errors.NotValidf("session.ttl_minutes %d", c.Session.TTLMinutes)
	}
	if c.Reports.Enabled() && (c.Reports.AccessKey == "") != (c.Reports.SecretKey == "") {
		return errors.NewNotValid(nil, "reports credentials: access_key and secret_key must be set together")
	}
	return nil
}
