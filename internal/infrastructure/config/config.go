package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Archive backends.
const (
	BackendS3  = "s3"
	BackendGCS = "gcs"
	BackendFS  = "fs"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPassword       string        `env:"DB_PASSWORD,required"`
	DBHost           string        `env:"DB_HOST"          envDefault:"db"`
	DBPort           int           `env:"DB_PORT"          envDefault:"5432"`
	DBUser           string        `env:"DB_USER"          envDefault:"python"`
	DBName           string        `env:"DB_NAME"`
	DBSSLMode        string        `env:"DB_SSLMODE"       envDefault:"disable"`
	DatabaseMaxConns int           `env:"DB_MAX_CONNS"     envDefault:"4"`
	DatabaseMinConns int           `env:"DB_MIN_CONNS"     envDefault:"1"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT" envDefault:"30s"`
	MigrationsPath   string        `env:"MIGRATIONS_PATH"  envDefault:"migrations"`

	// Asset
	AssetCode         string `env:"ASSET_CODE,required"`
	AssetIssuer       string `env:"ASSET_ISSUER,required"`
	NetworkPassphrase string `env:"NETWORK_PASSPHRASE,required"`

	// Archive
	ArchiveBackend string        `env:"ARCHIVE_BACKEND" envDefault:"s3"`
	BucketName     string        `env:"BUCKET_NAME,required"`
	CoreDirectory  string        `env:"CORE_DIRECTORY"`
	MaxRetries     int           `env:"MAX_RETRIES,required"`
	RetryStrategy  string        `env:"RETRY_STRATEGY"  envDefault:"constant"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL"  envDefault:"180s"`

	// S3
	AWSRegion        string `env:"AWS_REGION"          envDefault:"us-east-1"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	AWSAccessKey     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey     string `env:"AWS_SECRET_ACCESS_KEY"`

	// GCS
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
	GCSEndpoint        string `env:"GCS_ENDPOINT"`

	// Redis (optional - leave empty to disable notifications)
	RedisURL    string        `env:"REDIS_URL"`
	RedisStream string        `env:"REDIS_STREAM"   envDefault:"historycollector:files"`
	LockTTL     time.Duration `env:"REDIS_LOCK_TTL" envDefault:"30s"`

	// HTTP ops server (empty port disables it)
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"9100"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"10s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"10s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables. Variables already
// set take precedence over the optional .env files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.DBName == "" {
		cfg.DBName = strings.ToLower(cfg.AssetCode)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// minLockTTL leaves room for the lock to be refreshed three times per
// lifetime.
const minLockTTL = time.Second

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries))
	}

	switch c.ArchiveBackend {
	case BackendS3, BackendGCS, BackendFS:
	default:
		errs = append(errs, fmt.Errorf("ARCHIVE_BACKEND must be one of s3, gcs, fs, got %q", c.ArchiveBackend))
	}

	switch c.RetryStrategy {
	case "constant", "exponential":
	default:
		errs = append(errs, fmt.Errorf("RETRY_STRATEGY must be constant or exponential, got %q", c.RetryStrategy))
	}

	if c.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("RETRY_INTERVAL must be positive, got %s", c.RetryInterval))
	}

	if c.RedisURL != "" && c.LockTTL < minLockTTL {
		errs = append(errs, fmt.Errorf("REDIS_LOCK_TTL must be at least %s, got %s", minLockTTL, c.LockTTL))
	}

	if c.DatabaseMinConns > c.DatabaseMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DatabaseMinConns, c.DatabaseMaxConns))
	}

	return errors.Join(errs...)
}

// DatabaseURL builds the PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, fmt.Sprint(c.DBPort)),
		Path:   "/" + c.DBName,
	}

	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

// LockKey is the Redis key guarding the database of this collector.
func (c *Config) LockKey() string {
	return "historycollector:lock:" + c.DBHost + "/" + c.DBName
}
