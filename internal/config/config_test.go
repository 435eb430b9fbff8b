package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "memory", cfg.RateLimitBackend)
	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteCodeTTL)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("RATE_LIMIT_MAX", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("VAPID_SUBJECT", "mailto:admin@example.com")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "redis", cfg.RateLimitBackend)
	assert.Equal(t, 3, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "mailto:admin@example.com", cfg.VAPIDSubject)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "-1")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("DEBUG", "maybe")

	cfg := Load()

	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.Debug)
}

func TestConnectionStrings(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "tasks", DBSSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tasks sslmode=disable", cfg.DSN())
	assert.Equal(t, "pgx5://u:p@db:5432/tasks?sslmode=disable", cfg.MigrationURL())
}
