package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Storage drivers
const (
	StorageLocal = "local"
	StorageMinIO = "minio"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string `yaml:"port" env:"SERVER_PORT"`
		Mode          string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL       string `yaml:"base_url" env:"SERVER_BASE_URL"`
		SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET"`
		SecureCookies bool   `yaml:"secure_cookies" env:"SESSION_SECURE_COOKIES"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
		Seed            bool   `yaml:"seed" env:"DB_SEED"`
	} `yaml:"database"`

	JWT struct {
		Secret            string `yaml:"secret" env:"JWT_SECRET"`
		SessionExpiration string `yaml:"session_expiration" env:"JWT_SESSION_EXPIRATION"`
		Issuer            string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Mail struct {
		Driver         string `yaml:"driver" env:"MAIL_DRIVER"`
		Host           string `yaml:"host" env:"MAIL_HOST"`
		Port           int    `yaml:"port" env:"MAIL_PORT"`
		Username       string `yaml:"username" env:"MAIL_USERNAME"`
		Password       string `yaml:"password" env:"MAIL_PASSWORD"`
		FromName       string `yaml:"from_name" env:"MAIL_FROM_NAME"`
		FromEmail      string `yaml:"from_email" env:"MAIL_FROM_EMAIL"`
		UseTLS         bool   `yaml:"use_tls" env:"MAIL_USE_TLS"`
		SendgridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	} `yaml:"mail"`

	Storage struct {
		Driver   string `yaml:"driver" env:"STORAGE_DRIVER"`
		Path     string `yaml:"path" env:"STORAGE_PATH"`
		MediaURL string `yaml:"media_url" env:"STORAGE_MEDIA_URL"`
		MinIO    struct {
			Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
			AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
			SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
			Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
			UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
			PublicURL string `yaml:"public_url" env:"MINIO_PUBLIC_URL"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	App struct {
		University string `yaml:"university" env:"APP_UNIVERSITY"`
		// The staff account created by the seed when no staff voter exists yet
		AdminRegNo    string `yaml:"admin_reg_no" env:"ADMIN_REG_NO"`
		AdminEmail    string `yaml:"admin_email" env:"ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
	} `yaml:"app"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"

	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "unidesk"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.AutoMigrate = true
	config.Database.Seed = true

	config.JWT.SessionExpiration = "12h"
	config.JWT.Issuer = "unidesk"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Mail.Driver = "console"
	config.Mail.Port = 587
	config.Mail.FromName = "Research Coordination Office"
	config.Mail.FromEmail = "noreply@localhost"

	config.Storage.Driver = StorageLocal
	config.Storage.Path = "media"
	config.Storage.MediaURL = "/media"
	config.Storage.MinIO.Bucket = "unidesk"

	config.App.University = "Metropolitan International University"
	config.App.AdminRegNo = "admin"
	config.App.AdminEmail = "admin@localhost"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid connection max lifetime: %w", err)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if _, err := time.ParseDuration(config.JWT.SessionExpiration); err != nil {
		return fmt.Errorf("invalid JWT session expiration format: %w", err)
	}
	if len(config.Server.SessionSecret) < 32 {
		return fmt.Errorf("session secret must be at least 32 bytes")
	}

	switch strings.ToLower(config.Mail.Driver) {
	case "smtp":
		if config.Mail.Host == "" {
			return fmt.Errorf("mail host is required for the smtp driver")
		}
	case "sendgrid":
		if config.Mail.SendgridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required for the sendgrid driver")
		}
	case "console":
	default:
		return fmt.Errorf("unsupported mail driver %q", config.Mail.Driver)
	}

	switch config.Storage.Driver {
	case StorageLocal:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case StorageMinIO:
		if config.Storage.MinIO.Endpoint == "" || config.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("MinIO endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
