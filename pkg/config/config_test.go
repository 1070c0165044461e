package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/membergate/pkg/config"
)

type testConfig struct {
	Host string `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Port int    `env:"TEST_CFG_PORT" envDefault:"8080"`
	Name string `env:"TEST_CFG_NAME,required"`
}

type optionalConfig struct {
	Debug bool `env:"TEST_CFG_DEBUG" envDefault:"false"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults and required values", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_CFG_NAME", "billing")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "billing", cfg.Name)
	})

	t.Run("missing required value", func(t *testing.T) {
		config.ResetCache()

		var cfg testConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("cached after first load", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_CFG_DEBUG", "true")

		var first optionalConfig
		require.NoError(t, config.Load(&first))
		require.True(t, first.Debug)

		// Environment changes after the first load are not observed.
		t.Setenv("TEST_CFG_DEBUG", "false")

		var second optionalConfig
		require.NoError(t, config.Load(&second))
		assert.True(t, second.Debug)
	})
}

func TestMustLoad(t *testing.T) {
	config.ResetCache()

	var cfg testConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
