package gateway_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebrinamusbah/bookstore-client/pkg/config"
	"github.com/sebrinamusbah/bookstore-client/pkg/gateway"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BOOKSTORE_API_URL", "https://shop.example.com/api")
	t.Setenv("BOOKSTORE_API_TIMEOUT", "5s")

	var cfg gateway.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "https://shop.example.com/api", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout, "upload timeout falls back to its default")
}

func TestConfigFromEnv_MissingBaseURL(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the variable truly
	// absent rather than empty.
	t.Setenv("BOOKSTORE_API_URL", "")
	os.Unsetenv("BOOKSTORE_API_URL")

	var cfg gateway.Config
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := gateway.DefaultConfig("http://localhost:4000/api")
	assert.Equal(t, "http://localhost:4000/api", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
}
