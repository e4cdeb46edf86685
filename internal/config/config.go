package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// ExtractionConfig points at the external extraction service and the survey API.
type ExtractionConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	SurveyURL string        `mapstructure:"survey_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// IngestConfig holds the batching and input acceptance policy.
type IngestConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	SettleInterval time.Duration `mapstructure:"settle_interval"`
	MaxFiles       int           `mapstructure:"max_files"`
	MaxFileSize    int64         `mapstructure:"max_file_size"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

// StorageConfig configures the S3-compatible export archive.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment endpoints
	v.BindEnv("extraction.base_url", "EXTRACTION_BASE_URL")
	v.BindEnv("extraction.survey_url", "SURVEY_API_URL")
	v.BindEnv("extraction.api_key", "EXTRACTION_API_KEY")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("extraction.base_url", "http://localhost:5001")
	v.SetDefault("extraction.survey_url", "http://localhost:3001/api")
	v.SetDefault("extraction.timeout", 120*time.Second)

	v.SetDefault("ingest.batch_size", 5)
	v.SetDefault("ingest.settle_interval", time.Second)
	v.SetDefault("ingest.max_files", 20)
	v.SetDefault("ingest.max_file_size", 15*1024*1024)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/jobs.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucket", "extractions")
	v.SetDefault("storage.prefix", "exports")
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Extraction.BaseURL == "" {
		return fmt.Errorf("extraction.base_url is required")
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.SettleInterval < 0 {
		return fmt.Errorf("ingest.settle_interval must not be negative")
	}
	if c.Ingest.MaxFiles <= 0 {
		return fmt.Errorf("ingest.max_files must be positive, got %d", c.Ingest.MaxFiles)
	}
	if c.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("ingest.max_file_size must be positive, got %d", c.Ingest.MaxFileSize)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	return nil
}
