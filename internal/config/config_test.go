package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:3000/api", c.GetAPIBaseURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.Equal(t, time.Minute, c.GetNotificationInterval())
	require.Equal(t, "/feed", c.GetDefaultRoute())
	require.Equal(t, config.StoreFile, c.GetStoreType())
	require.Equal(t, ":3000", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestNew_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIZCARD_API_URL", "https://cards.example.com/api")
	t.Setenv("BIZCARD_STORE", "sqlite")
	t.Setenv("BIZCARD_TIMEOUT", "2s")
	t.Setenv("PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "https://cards.example.com/api", c.GetAPIBaseURL())
	require.Equal(t, config.StoreSQLite, c.GetStoreType())
	require.Equal(t, 2*time.Second, c.GetRequestTimeout())
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, []string{"http://a.test", "http://b.test"}, c.GetAllowedOrigins())
}

func TestNew_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BIZCARD_DEFAULT_ROUTE=/friends\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BIZCARD_DEFAULT_ROUTE") })

	c, err := config.New(envFile)
	require.NoError(t, err)
	require.Equal(t, "/friends", c.GetDefaultRoute())
}
