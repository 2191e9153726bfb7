// Package config loads server settings from defaults, an optional YAML file,
// a config.env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"gopkg.in/yaml.v3"
)

const (
	DriverMongo  = "mongo"
	DriverDuckDB = "duckdb"

	BackendLocal = "local"
	BackendMinio = "minio"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int      `yaml:"port"`
	BindAddress  string   `yaml:"bindAddress"`
	EnableCORS   bool     `yaml:"enableCORS"`
	AllowOrigins []string `yaml:"allowOrigins"`
	ReadTimeout  int      `yaml:"readTimeoutSeconds"`
	WriteTimeout int      `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int      `yaml:"idleTimeoutSeconds"`
}

// StorageConfig contains blob storage settings
type StorageConfig struct {
	Backend          string      `yaml:"backend"`
	UploadsDirectory string      `yaml:"uploadsDirectory"`
	MaxUploadSize    string      `yaml:"maxUploadSize"`
	Minio            MinioConfig `yaml:"minio"`
}

// MinioConfig is only read when Storage.Backend is "minio".
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
	Bucket    string `yaml:"bucket"`
}

// DatabaseConfig selects and configures the record store
type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	MongoURL        string `yaml:"mongoURL"`
	MongoDatabase   string `yaml:"mongoDatabase"`
	MongoCollection string `yaml:"mongoCollection"`
	DuckDBPath      string `yaml:"duckdbPath"`
}

// AdvancedConfig contains logging options
type AdvancedConfig struct {
	LogLevel             string `yaml:"logLevel"`
	Environment          string `yaml:"environment"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: []string{"*"},
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Storage: StorageConfig{
			Backend:          BackendLocal,
			UploadsDirectory: "./uploads",
			MaxUploadSize:    "5MB",
			Minio: MinioConfig{
				Bucket: "uploads",
			},
		},
		Database: DatabaseConfig{
			Driver:          DriverMongo,
			MongoURL:        "mongodb://localhost:27017",
			MongoDatabase:   "filedrop",
			MongoCollection: "user_files",
			DuckDBPath:      "./data/records.duckdb",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			Environment:          "development",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig builds the configuration. A missing yamlPath or envPath is not
// an error; real environment variables always win over config.env.
func LoadConfig(yamlPath, envPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as YAML
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# filedrop configuration\n")
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.MongoURL, "MONGODB_URL")
	setString(&c.Database.MongoDatabase, "MONGODB_DATABASE")
	setString(&c.Database.MongoCollection, "MONGODB_COLLECTION")
	setString(&c.Database.DuckDBPath, "DUCKDB_PATH")

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.UploadsDirectory, "UPLOAD_DIR")
	setString(&c.Storage.MaxUploadSize, "MAX_UPLOAD_SIZE")
	setString(&c.Storage.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Storage.Minio.Bucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.Storage.Minio.UseSSL = v == "true" || v == "1"
	}

	setString(&c.Advanced.LogLevel, "LOG_LEVEL")
	setString(&c.Advanced.Environment, "APP_ENV")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.MongoURL == "" {
			return errors.New("MONGODB_URL is required for the mongo driver")
		}
	case DriverDuckDB:
		if c.Database.DuckDBPath == "" {
			return errors.New("DUCKDB_PATH is required for the duckdb driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.UploadsDirectory == "" {
			return errors.New("uploads directory is required")
		}
	case BackendMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return errors.New("minio endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	return nil
}

// MaxUploadBytes parses Storage.MaxUploadSize ("5MB", "512KB", ...).
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	n, err := bytes.Parse(c.Storage.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max upload size %q: %w", c.Storage.MaxUploadSize, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid max upload size %q", c.Storage.MaxUploadSize)
	}
	return n, nil
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates the directories the selected backends write to.
func (c *AppConfig) EnsureDirectories() error {
	var dirs []string
	if c.Storage.Backend == BackendLocal {
		dirs = append(dirs, c.Storage.UploadsDirectory)
	}
	if c.Database.Driver == DriverDuckDB {
		dirs = append(dirs, filepath.Dir(c.Database.DuckDBPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
