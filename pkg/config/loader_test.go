package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebrinamusbah/bookstore-client/pkg/config"
)

type testConfig struct {
	BaseURL string        `env:"TEST_CONFIG_BASE_URL,required"`
	Timeout time.Duration `env:"TEST_CONFIG_TIMEOUT" envDefault:"10s"`
	Debug   bool          `env:"TEST_CONFIG_DEBUG" envDefault:"false"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_CONFIG_BASE_URL", "http://localhost:4000/api")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "http://localhost:4000/api", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.False(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TEST_CONFIG_BASE_URL", "http://localhost:4000/api")
	t.Setenv("TEST_CONFIG_TIMEOUT", "30s")
	t.Setenv("TEST_CONFIG_DEBUG", "true")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TEST_CONFIG_BASE_URL", "")

	type strictConfig struct {
		Addr string `env:"TEST_CONFIG_STRICT_ADDR,required"`
	}

	var cfg strictConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	t.Parallel()

	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	type strictConfig struct {
		Token string `env:"TEST_CONFIG_MUST_TOKEN,required,notEmpty"`
	}

	assert.Panics(t, func() {
		var cfg strictConfig
		config.MustLoad(&cfg)
	})
}
