package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

const (
	DocumentStoreFS    = "fs"
	DocumentStoreS3    = "s3"
	DocumentStoreRedis = "redis"
)

type Config struct {
	Database      *dbConfig
	Service       *svcConfig
	Collaborators *collaboratorsConfig
	Storage       *storageConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"pdfsaas.db"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"PDFSAAS_ADDRESS" default:":5000"`
	MetricsAddress  string `envconfig:"PDFSAAS_METRICS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"PDFSAAS_LOG_LEVEL" default:"info"`
	MaxUploadBytes  int64  `envconfig:"PDFSAAS_MAX_UPLOAD_BYTES" default:"67108864"`
	StrictDocuments bool   `envconfig:"PDFSAAS_STRICT_DOCUMENTS" default:"false"`
}

type collaboratorsConfig struct {
	ExtractionURL        string        `envconfig:"PDFSAAS_EXTRACTION_URL" default:"http://localhost:5001"`
	ExtractionTimeout    time.Duration `envconfig:"PDFSAAS_EXTRACTION_TIMEOUT" default:"60s"`
	SummarizationURL     string        `envconfig:"PDFSAAS_SUMMARIZATION_URL" default:"http://localhost:5002"`
	SummarizationTimeout time.Duration `envconfig:"PDFSAAS_SUMMARIZATION_TIMEOUT" default:"30s"`
	RenderingURL         string        `envconfig:"PDFSAAS_RENDERING_URL" default:"http://localhost:5003"`
	RenderingTimeout     time.Duration `envconfig:"PDFSAAS_RENDERING_TIMEOUT" default:"60s"`
}

type storageConfig struct {
	Backend string        `envconfig:"PDFSAAS_DOCUMENT_STORE" default:"fs"`
	Dir     string        `envconfig:"PDFSAAS_DOCUMENT_DIR" default:"data"`
	Timeout time.Duration `envconfig:"PDFSAAS_PERSIST_TIMEOUT" default:"10s"`

	S3Endpoint  string `envconfig:"PDFSAAS_S3_ENDPOINT" default:""`
	S3Bucket    string `envconfig:"PDFSAAS_S3_BUCKET" default:"pdfsaas-documents"`
	S3AccessKey string `envconfig:"PDFSAAS_S3_ACCESS_KEY" default:""`
	S3SecretKey string `envconfig:"PDFSAAS_S3_SECRET_KEY" default:""`
	S3UseSSL    bool   `envconfig:"PDFSAAS_S3_USE_SSL" default:"true"`
	S3Prefix    string `envconfig:"PDFSAAS_S3_PREFIX" default:"documents/"`
	S3Region    string `envconfig:"PDFSAAS_S3_REGION" default:""`

	RedisAddr     string `envconfig:"PDFSAAS_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"PDFSAAS_REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"PDFSAAS_REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"PDFSAAS_REDIS_PREFIX" default:"pdfsaas:document:"`
}

// New loads a .env file when present and reads the environment once.
func New() (*Config, error) {
	if singleConfig == nil {
		_ = godotenv.Load()

		cfg := new(Config)
		if err := envconfig.Process("", cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// NewDefault reads the environment without a .env file and without caching. Used by tests.
func NewDefault() *Config {
	cfg := new(Config)
	_ = envconfig.Process("", cfg)
	return cfg
}

func (c *Config) Validate() error {
	validationErrors := make([]error, 0)

	for name, raw := range map[string]string{
		"extraction":    c.Collaborators.ExtractionURL,
		"summarization": c.Collaborators.SummarizationURL,
		"rendering":     c.Collaborators.RenderingURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("invalid %s url %q: %w", name, raw, err))
			continue
		}
		if u.Scheme == "" || u.Host == "" {
			validationErrors = append(validationErrors, fmt.Errorf("invalid %s url %q: scheme and host are required", name, raw))
		}
	}

	for name, timeout := range map[string]time.Duration{
		"extraction":    c.Collaborators.ExtractionTimeout,
		"summarization": c.Collaborators.SummarizationTimeout,
		"rendering":     c.Collaborators.RenderingTimeout,
		"persist":       c.Storage.Timeout,
	} {
		if timeout <= 0 {
			validationErrors = append(validationErrors, fmt.Errorf("%s timeout must be positive", name))
		}
	}

	if c.Service.MaxUploadBytes <= 0 {
		validationErrors = append(validationErrors, errors.New("max upload size must be positive"))
	}

	switch c.Storage.Backend {
	case DocumentStoreFS, DocumentStoreRedis:
	case DocumentStoreS3:
		if c.Storage.S3Endpoint == "" {
			validationErrors = append(validationErrors, errors.New("s3 document store requires an endpoint"))
		}
	default:
		validationErrors = append(validationErrors, fmt.Errorf("unknown document store %q", c.Storage.Backend))
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(validationErrors...))
	}
	return nil
}
