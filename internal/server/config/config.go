// Package config handles configuration for the server component,
// including defaults, a JSON overlay, environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds runtime settings for the astroprofile server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps users in memory.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Required.
//   - TokenTTL: session token lifetime.
//   - Hasher / BcryptCost: password hashing algorithm and bcrypt work factor.
//   - AttachmentStorage: "local" (UploadDir) or "s3".
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	EndpointAddr      string        `env:"ASTRO_ENDPOINT_ADDR"`
	DatabaseDSN       string        `env:"ASTRO_DATABASE_DSN"`
	SecretKey         string        `env:"ASTRO_SECRET_KEY"`
	TokenTTL          time.Duration `env:"ASTRO_TOKEN_TTL"`
	Hasher            string        `env:"ASTRO_HASHER"`
	BcryptCost        int           `env:"ASTRO_BCRYPT_COST"`
	AttachmentStorage string        `env:"ASTRO_ATTACHMENT_STORAGE"`
	UploadDir         string        `env:"ASTRO_UPLOAD_DIR"`
	S3RootUser        string        `env:"ASTRO_S3_ROOT_USER"`
	S3RootPassword    string        `env:"ASTRO_S3_ROOT_PASSWORD"`
	S3Bucket          string        `env:"ASTRO_S3_BUCKET"`
	S3Region          string        `env:"ASTRO_S3_REGION"`
	S3BaseEndpoint    string        `env:"ASTRO_S3_BASE_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults. There is no
// default signing key.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8000"
	c.DatabaseDSN = ""
	c.TokenTTL = time.Hour
	c.Hasher = "bcrypt"
	c.BcryptCost = 10
	c.AttachmentStorage = StorageLocal
	c.UploadDir = "uploads"
	c.S3Bucket = "avatars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	switch c.AttachmentStorage {
	case StorageLocal:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("upload dir is required for local attachment storage"))
		}
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 bucket is required for s3 attachment storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown attachment storage %q", c.AttachmentStorage))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags. The result is validated.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
