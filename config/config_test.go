package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisHost)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("INKPRESS_TEST_ONLY=1\n"), 0o600))
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_EMAILS", "root@example.com, Boss@Example.com")
	t.Cleanup(func() { os.Unsetenv("INKPRESS_TEST_ONLY") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1", os.Getenv("INKPRESS_TEST_ONLY"))
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.True(t, cfg.IsAdminEmail("boss@example.com"))
	assert.False(t, cfg.IsAdminEmail("someone@example.com"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := AppConfig{JWTSecret: "x", StoreDriver: "sqlite", JWTTTL: time.Hour}
	assert.Error(t, cfg.Validate())
}

func TestMySQLDSN(t *testing.T) {
	cfg := AppConfig{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "blog"}
	assert.Equal(t, "u:p@tcp(db:3306)/blog?charset=utf8mb4&parseTime=True&loc=UTC", cfg.MySQLDSN())

	cfg.DatabaseURI = "custom"
	assert.Equal(t, "custom", cfg.MySQLDSN())
}
