package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validBase() *Config {
	return &Config{
		Env:                  "development",
		Port:                 "8460",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBPassword:           "secure-password",
		DBSSLMode:            "disable",
		RedisURL:             "redis://localhost:6379",
		AssetStore:           "local",
		ImageMaxUploadSizeMB: 10,
		ImageMaxPerListing:   10,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validBase()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateAssetStore(t *testing.T) {
	c := validBase()
	c.AssetStore = "minio"
	c.MinioEndpoint = ""
	assert.Error(t, c.Validate())

	c.MinioEndpoint = "localhost:9000"
	c.MinioBucket = ""
	assert.Error(t, c.Validate())

	c.MinioBucket = "driveline-listings"
	assert.NoError(t, c.Validate())

	c.AssetStore = "s3"
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateMinioCredentialsInProduction(t *testing.T) {
	c := validBase()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.AssetStore = "minio"
	c.MinioEndpoint = "minio.internal:9000"
	c.MinioBucket = "driveline-listings"
	assert.Error(t, c.Validate())

	c.MinioAccessKey = "access"
	c.MinioSecretKey = "secret"
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateImageLimits(t *testing.T) {
	c := validBase()
	c.ImageMaxUploadSizeMB = 0
	assert.Error(t, c.Validate())

	c = validBase()
	c.ImageMaxPerListing = 0
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateDefaultJWTSecretInProduction(t *testing.T) {
	c := validBase()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, c.Validate())
}
