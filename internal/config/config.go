package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Email    EmailConfig    `mapstructure:"email"`
	Template TemplateConfig `mapstructure:"template"`
	Queue    QueueConfig    `mapstructure:"queue"`
	// Recipients describes where user IDs are resolved to addresses
	Recipients RecipientsConfig `mapstructure:"recipients"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// AllowedOrigins is the CORS allow list for the admin API
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SecurityConfig holds admin API authentication settings
type SecurityConfig struct {
	// AdminAPIKeyHash is an argon2id or bcrypt hash of the key accepted in X-API-Key
	AdminAPIKeyHash string `mapstructure:"admin_api_key_hash"`
	// JWTSecret signs and verifies HS256 admin bearer tokens
	JWTSecret    string             `mapstructure:"jwt_secret"`
	JWTIssuer    string             `mapstructure:"jwt_issuer"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
}

// RateLimitingConfig holds rate limiting configuration for send endpoints
// and for authenticated API requests
type RateLimitingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Limit caps send requests per actor within Window
	Limit int `mapstructure:"limit"`
	// AuthLimit caps /api/v1 requests per client IP within Window, counted
	// before credentials are checked
	AuthLimit int           `mapstructure:"auth_limit"`
	Window    time.Duration `mapstructure:"window"`
}

// EmailConfig holds email sending configuration
type EmailConfig struct {
	// Provider is the delivery backend: "gmail", "smtp" or "log"
	Provider string `mapstructure:"provider"`
	// FromName is the display name used by every provider
	FromName string           `mapstructure:"from_name"`
	Gmail    GmailEmailConfig `mapstructure:"gmail"`
	SMTP     SMTPEmailConfig  `mapstructure:"smtp"`
	// AssetBaseURL is prepended to relative image paths in the layout
	AssetBaseURL string `mapstructure:"asset_base_url"`
}

// GmailEmailConfig holds Gmail API configuration
type GmailEmailConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
	// SenderAddress is the "From" email address
	SenderAddress string `mapstructure:"sender_address"`
}

// SMTPEmailConfig holds SMTP relay configuration
type SMTPEmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// TLSMode is "auto", "ssl" or "none"
	TLSMode string `mapstructure:"tls_mode"`
}

// TemplateConfig holds template storage settings
type TemplateConfig struct {
	// BodyColumnType is "text", "long_text" or "json"
	BodyColumnType string              `mapstructure:"body_column_type"`
	Cache          TemplateCacheConfig `mapstructure:"cache"`
}

// TemplateCacheConfig selects the read-through cache in front of the repository
type TemplateCacheConfig struct {
	// Driver is "redis", "memory" or "none". A memory cache is only
	// invalidated inside the process that writes, so it requires
	// queue.run_worker_in_server.
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// QueueConfig holds background send job settings
type QueueConfig struct {
	Name        string `mapstructure:"name"`
	Concurrency int    `mapstructure:"concurrency"`
	// RunWorkerInServer starts the queue worker inside the HTTP server process
	RunWorkerInServer bool `mapstructure:"run_worker_in_server"`
}

// RecipientsConfig points at the host application's user table
type RecipientsConfig struct {
	UserTable   string `mapstructure:"user_table"`
	IDColumn    string `mapstructure:"id_column"`
	EmailColumn string `mapstructure:"email_column"`
}

// Load reads configuration from .env, the config file and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/emailbuilder")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("EMAILBUILDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Template.BodyColumnType {
	case "text", "long_text", "json":
	default:
		return fmt.Errorf("invalid template.body_column_type %q", c.Template.BodyColumnType)
	}
	switch c.Template.Cache.Driver {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("invalid template.cache.driver %q", c.Template.Cache.Driver)
	}
	if c.Template.Cache.Driver == "memory" && !c.Queue.RunWorkerInServer {
		return errors.New("template.cache.driver \"memory\" requires queue.run_worker_in_server; a separate worker would keep stale templates")
	}
	switch c.Email.Provider {
	case "gmail", "smtp", "log":
	default:
		return fmt.Errorf("invalid email.provider %q", c.Email.Provider)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "emailbuilder")
	v.SetDefault("database.user", "emailbuilder")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Security defaults
	v.SetDefault("security.admin_api_key_hash", "")
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_issuer", "emailbuilder")
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.limit", 60)
	v.SetDefault("security.rate_limiting.auth_limit", 300)
	v.SetDefault("security.rate_limiting.window", "1m")

	// Email defaults
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from_name", "EmailBuilder")
	v.SetDefault("email.asset_base_url", "")
	v.SetDefault("email.gmail.sender_address", "")
	v.SetDefault("email.smtp.host", "localhost")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.tls_mode", "auto")

	// Template defaults
	v.SetDefault("template.body_column_type", "long_text")
	v.SetDefault("template.cache.driver", "redis")
	v.SetDefault("template.cache.ttl", "5m")

	// Queue defaults
	v.SetDefault("queue.name", "emails")
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.run_worker_in_server", false)

	// Recipient lookup defaults
	v.SetDefault("recipients.user_table", "users")
	v.SetDefault("recipients.id_column", "id")
	v.SetDefault("recipients.email_column", "email")
}
