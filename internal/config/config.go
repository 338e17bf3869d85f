package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/pkg/errors"
)

const (
	DefaultGatewayTimeout     = 30 * time.Second
	DefaultStagingTTL         = 300 * time.Second
	DefaultBulkChunkSize      = 100
	DefaultBulkConcurrency    = 1
	DefaultSystemMessageLen   = 160
	DefaultHttpRequestTimeout = 60 * time.Second
)

var config *Config

// Config holds every configuration value of the portal. Nothing else reads
// the environment or env files directly.
type Config struct {
	AppEnv  string `env:"APP_ENV"`
	AppName string `env:"APP_NAME"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`
	MetricsAddr   string `env:"METRICS_ADDR"`
	MetricsURI    string `env:"METRICS_URI"`

	LogLevel string `env:"LOG_LEVEL"`

	GatewayBaseUrl  string        `env:"GATEWAY_BASE_URL"`
	GatewayApiKey   string        `env:"GATEWAY_API_KEY"`
	GatewaySenderID string        `env:"GATEWAY_SENDER_ID"`
	GatewayTimeout  time.Duration `env:"GATEWAY_TIMEOUT"`
	GatewayMaxConns int           `env:"GATEWAY_MAX_CONNS"`

	StagingBackend string        `env:"STAGING_BACKEND"`
	StagingTTL     time.Duration `env:"STAGING_TTL"`

	BulkChunkSize       int `env:"BULK_CHUNK_SIZE"`
	BulkConcurrency     int `env:"BULK_CONCURRENCY"`
	SystemMessageMaxLen int `env:"SYSTEM_MESSAGE_MAX_LEN"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	c.applyDefaults()
	if err = c.Validate(); err != nil {
		return err
	}

	config = c
	return nil
}

func (c *Config) applyDefaults() {
	if c.AppEnv == "" {
		c.AppEnv = "dev"
	}
	if c.AppName == "" {
		c.AppName = "sms_portal"
	}
	if c.HttpListenAddr == "" {
		c.HttpListenAddr = ":8080"
	}
	if c.HttpRequestTimeout <= 0 {
		c.HttpRequestTimeout = DefaultHttpRequestTimeout
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9100"
	}
	if c.MetricsURI == "" {
		c.MetricsURI = "/metrics"
	}
	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = DefaultGatewayTimeout
	}
	if c.GatewayMaxConns <= 0 {
		c.GatewayMaxConns = 64
	}
	if c.StagingBackend == "" {
		c.StagingBackend = "redis"
	}
	if c.StagingTTL <= 0 {
		c.StagingTTL = DefaultStagingTTL
	}
	if c.BulkChunkSize == 0 {
		c.BulkChunkSize = DefaultBulkChunkSize
	}
	if c.BulkConcurrency <= 0 {
		c.BulkConcurrency = DefaultBulkConcurrency
	}
	if c.SystemMessageMaxLen <= 0 {
		c.SystemMessageMaxLen = DefaultSystemMessageLen
	}
}

func (c *Config) Validate() error {
	if c.GatewayBaseUrl == "" {
		return errors.New("GATEWAY_BASE_URL is required")
	}
	if c.GatewayApiKey == "" {
		return errors.New("GATEWAY_API_KEY is required")
	}
	if c.BulkChunkSize < 1 {
		return errors.Errorf("BULK_CHUNK_SIZE must be positive, got %d", c.BulkChunkSize)
	}
	switch c.StagingBackend {
	case "redis", "memory":
	default:
		return errors.Errorf("STAGING_BACKEND must be redis or memory, got %q", c.StagingBackend)
	}
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
