package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ADMIN_IP_WHITELIST", " 10.0.0.0/8, ,192.168.1.4 ")
	t.Setenv("RATING_MIN_VOTES", "not-a-number")
	t.Setenv("GENRE_SURFACE_ANCESTORS", "true")

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.4"}, cfg.AdminIPWhitelist)
	assert.Equal(t, 4, cfg.RatingMinVotes, "invalid ints fall back to the default")
	assert.True(t, cfg.GenreSurfaceAncestors)
}

func TestMinioConfigured(t *testing.T) {
	cfg := &Config{MinioEndpoint: "s3.local:9000"}
	assert.False(t, cfg.MinioConfigured())

	cfg.MinioAccessKey = "key"
	cfg.MinioSecretKey = "secret"
	assert.True(t, cfg.MinioConfigured())
}
