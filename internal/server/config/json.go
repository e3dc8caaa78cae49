package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/astroprofile/internal/flagx"
	"github.com/dmitrijs2005/astroprofile/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "1h" strings and integer nanoseconds. Absent keys keep the
// value already in Config.
type JsonConfig struct {
	EndpointAddr      *string         `json:"endpoint_addr"`
	DatabaseDSN       *string         `json:"database_dsn"`
	SecretKey         *string         `json:"secret_key"`
	TokenTTL          *timex.Duration `json:"token_ttl"`
	Hasher            *string         `json:"hasher"`
	BcryptCost        *int            `json:"bcrypt_cost"`
	AttachmentStorage *string         `json:"attachment_storage"`
	UploadDir         *string         `json:"upload_dir"`
	S3RootUser        *string         `json:"s3_root_user"`
	S3RootPassword    *string         `json:"s3_root_password"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	setString(&config.Hasher, c.Hasher)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	setString(&config.AttachmentStorage, c.AttachmentStorage)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
