package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-t", "5",
				"-k", "argon2id", "-o", "12", "-m", "s3", "-f", "up",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				EndpointAddr:      "127.0.0.1:9090",
				DatabaseDSN:       "db",
				SecretKey:         "secret",
				TokenTTL:          5 * time.Minute,
				Hasher:            "argon2id",
				BcryptCost:        12,
				AttachmentStorage: "s3",
				UploadDir:         "up",
				S3RootUser:        "user",
				S3RootPassword:    "password",
				S3Bucket:          "bucket",
				S3Region:          "us-west-1",
				S3BaseEndpoint:    "http://endpoint",
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-s", "secret"},
			expected: &Config{SecretKey: "secret", TokenTTL: 90 * time.Second},
		},
		{
			name:    "bad int",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.args...)

			config := &Config{TokenTTL: 90 * time.Second}
			err := parseFlags(config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
