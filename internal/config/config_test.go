package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "long_text", cfg.Template.BodyColumnType)
	assert.Equal(t, "redis", cfg.Template.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Template.Cache.TTL)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, time.Minute, cfg.Security.RateLimiting.Window)
	assert.Equal(t, 300, cfg.Security.RateLimiting.AuthLimit)
	assert.Equal(t, "emails", cfg.Queue.Name)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EMAILBUILDER_TEMPLATE_BODY_COLUMN_TYPE", "json")
	t.Setenv("EMAILBUILDER_EMAIL_PROVIDER", "smtp")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Template.BodyColumnType)
	assert.Equal(t, "smtp", cfg.Email.Provider)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EMAILBUILDER_EMAIL_PROVIDER", "pigeon")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}

func TestValidate_MemoryCacheNeedsInProcessWorker(t *testing.T) {
	cfg := &Config{}
	cfg.Template.BodyColumnType = "long_text"
	cfg.Template.Cache.Driver = "memory"
	cfg.Email.Provider = "log"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_worker_in_server")

	cfg.Queue.RunWorkerInServer = true
	assert.NoError(t, cfg.Validate())

	cfg.Template.Cache.Driver = "redis"
	cfg.Queue.RunWorkerInServer = false
	assert.NoError(t, cfg.Validate())
}
