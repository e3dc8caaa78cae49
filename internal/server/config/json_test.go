package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseJson(t *testing.T) {
	t.Run("loads every field", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"endpoint_addr":      "www.example:9000",
			"database_dsn":       "postgres://db",
			"secret_key":         "my_secret_key",
			"token_ttl":          "15m",
			"hasher":             "argon2id",
			"bcrypt_cost":        12,
			"attachment_storage": "s3",
			"upload_dir":         "/srv/uploads",
			"s3_root_user":       "user",
			"s3_root_password":   "password",
			"s3_bucket":          "bucket",
			"s3_region":          "region",
			"s3_base_endpoint":   "base_endpoint",
		})
		withArgs(t, "-config", path)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
		assert.Equal(t, "argon2id", cfg.Hasher)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, "s3", cfg.AttachmentStorage)
		assert.Equal(t, "/srv/uploads", cfg.UploadDir)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
	})

	t.Run("nanosecond ttl", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"token_ttl": int64(time.Minute)})
		withArgs(t, "-c", path)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, time.Minute, cfg.TokenTTL)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"secret_key": "k"})
		withArgs(t, "-c", path)

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, ":8000", cfg.EndpointAddr)
		assert.Equal(t, time.Hour, cfg.TokenTTL)
		assert.Equal(t, "k", cfg.SecretKey)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		withArgs(t)

		cfg := &Config{EndpointAddr: "defaults:1234"}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, "defaults:1234", cfg.EndpointAddr)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		withArgs(t, "-config", bad)

		require.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, parseJson(&Config{}))
	})
}
