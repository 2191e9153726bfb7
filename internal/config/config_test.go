package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_DRIVER", "MONGODB_URL", "MONGODB_DATABASE", "MONGODB_COLLECTION",
		"DUCKDB_PATH", "STORAGE_BACKEND", "UPLOAD_DIR", "MAX_UPLOAD_SIZE",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
		"MINIO_USE_SSL", "LOG_LEVEL", "APP_ENV",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "user_files", cfg.Database.MongoCollection)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "0.0.0.0:8000", cfg.GetServerAddr())

	limit, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Greater(t, limit, int64(4_000_000))
	assert.LessOrEqual(t, limit, int64(5*1024*1024))
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9100
database:
  driver: duckdb
  duckdbPath: /tmp/records.duckdb
storage:
  maxUploadSize: 1MB
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, DriverDuckDB, cfg.Database.Driver)
	assert.Equal(t, "/tmp/records.duckdb", cfg.Database.DuckDBPath)
	// untouched sections keep defaults
	assert.Equal(t, "./uploads", cfg.Storage.UploadsDirectory)
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, "config.env")
	require.NoError(t, os.WriteFile(envPath, []byte("PORT=7000\nMONGODB_URL=mongodb://db:27017\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("MONGODB_URL")
	})

	cfg, err := LoadConfig("", envPath)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURL)
}

func TestLoadConfig_RealEnvWinsOverEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, "config.env")
	require.NoError(t, os.WriteFile(envPath, []byte("PORT=7000\n"), 0644))
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig("", envPath)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *AppConfig) {}},
		{name: "bad port", mutate: func(c *AppConfig) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *AppConfig) { c.Database.Driver = "sqlite" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *AppConfig) { c.Storage.Backend = "s3" }, wantErr: true},
		{name: "minio without endpoint", mutate: func(c *AppConfig) { c.Storage.Backend = BackendMinio }, wantErr: true},
		{name: "bad size", mutate: func(c *AppConfig) { c.Storage.MaxUploadSize = "lots" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 8181
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, 8181, loaded.Server.Port)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.UploadsDirectory = filepath.Join(dir, "uploads")
	cfg.Database.Driver = DriverDuckDB
	cfg.Database.DuckDBPath = filepath.Join(dir, "data", "records.duckdb")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.UploadsDirectory)
	assert.DirExists(t, filepath.Join(dir, "data"))
}
