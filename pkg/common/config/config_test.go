package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProd())
	assert.Equal(t, "lexicon", cfg.Moderation.Provider)
	assert.False(t, cfg.Moderation.FailOpen)

	// Default hands out copies
	cfg.Server.Address = ":1"
	assert.Equal(t, ":8080", Default().Server.Address)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default secret in production", func(c *Config) { c.Env = "production" }},
		{"threshold above one", func(c *Config) { c.Moderation.Threshold = 1.5 }},
		{"http provider without endpoint", func(c *Config) { c.Moderation.Provider = "http" }},
		{"unknown provider", func(c *Config) { c.Moderation.Provider = "oracle" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromTOMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
env = "staging"

[server]
address = ":9000"

[moderation]
provider = "http"
endpoint = "http://classifier.local/predict"
threshold = 0.7
`), 0o644))

	t.Setenv("APP_CONFIG", path)
	t.Setenv("TOXICITY_THRESHOLD", "0.8")
	t.Setenv("MODERATION_FAIL_OPEN", "yes")
	t.Setenv("JWT_ACCESS_TTL", "10m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_DRIVER", "Postgres")

	cfg := Load()
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "http", cfg.Moderation.Provider)
	assert.Equal(t, "http://classifier.local/predict", cfg.Moderation.Endpoint)
	assert.Equal(t, 0.8, cfg.Moderation.Threshold)
	assert.True(t, cfg.Moderation.FailOpen)
	assert.Equal(t, 10*time.Minute, cfg.Middleware.JWT.AccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Middleware.CORS.AllowOrigins)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"logLevel":"debug","database":{"driver":"mysql","port":3307}}`), 0o644))
	t.Setenv("APP_CONFIG", path)
	t.Setenv("TOXICITY_THRESHOLD", "7")

	cfg := Load()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3307, cfg.Database.Port)
	// out of range values are ignored
	assert.Equal(t, 0.5, cfg.Moderation.Threshold)
}

func TestDSN(t *testing.T) {
	d := Default().Database
	d.Driver = "mysql"
	assert.Equal(t, "root:root@tcp(localhost:3306)/blog?charset=utf8mb4&parseTime=True&loc=UTC", d.DSN())

	d.UseUnixSock = true
	d.Host = "/var/run/mysqld.sock"
	assert.Equal(t, "root:root@unix(/var/run/mysqld.sock)/blog?charset=utf8mb4&parseTime=True&loc=UTC", d.DSN())

	d.Driver = "postgres"
	d.Host = "db"
	d.Port = 5432
	assert.Contains(t, d.DSN(), "host=db port=5432")
	assert.Contains(t, d.DSN(), "sslmode=disable")

	d.Driver = "sqlite"
	d.Path = "/tmp/blog.db"
	assert.Contains(t, d.DSN(), "/tmp/blog.db?_foreign_keys=on")
}

func TestInitDBSQLite(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "blog.db")
	cfg.Database.LogLevel = "silent"

	db, err := cfg.InitDB()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}
