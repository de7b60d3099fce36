package config_test

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/saasadmin/pkg/config"
)

type defaultsConfig struct {
	Name    string `env:"CFG_TEST_DEFAULT_NAME" envDefault:"saasadmin"`
	Retries int    `env:"CFG_TEST_DEFAULT_RETRIES" envDefault:"3"`
	Debug   bool   `env:"CFG_TEST_DEFAULT_DEBUG" envDefault:"true"`
}

type overrideConfig struct {
	Name    string `env:"CFG_TEST_OVERRIDE_NAME" envDefault:"saasadmin"`
	Retries int    `env:"CFG_TEST_OVERRIDE_RETRIES" envDefault:"3"`
}

type cachedConfig struct {
	Value string `env:"CFG_TEST_CACHED_VALUE"`
}

type requiredConfig struct {
	Value string `env:"CFG_TEST_REQUIRED_VALUE,required"`
}

type concurrentConfig struct {
	Value string `env:"CFG_TEST_CONCURRENT_VALUE" envDefault:"shared"`
}

type validatedConfig struct {
	Port int `env:"CFG_TEST_VALIDATED_PORT" envDefault:"0"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("CFG_TEST_DEFAULT_NAME")
	os.Unsetenv("CFG_TEST_DEFAULT_RETRIES")
	os.Unsetenv("CFG_TEST_DEFAULT_DEBUG")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "saasadmin", cfg.Name)
	assert.Equal(t, 3, cfg.Retries)
	assert.True(t, cfg.Debug)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CFG_TEST_OVERRIDE_NAME", "billing")
	t.Setenv("CFG_TEST_OVERRIDE_RETRIES", "7")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "billing", cfg.Name)
	assert.Equal(t, 7, cfg.Retries)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED_VALUE", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFG_TEST_CACHED_VALUE", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, "first", second.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("CFG_TEST_REQUIRED_VALUE")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("CFG_TEST_REQUIRED_VALUE", "present")
	require.NoError(t, config.Load(&cfg), "failed parse must not be cached")
	assert.Equal(t, "present", cfg.Value)
}

func TestLoad_Validator(t *testing.T) {
	os.Unsetenv("CFG_TEST_VALIDATED_PORT")

	var cfg validatedConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	t.Setenv("CFG_TEST_VALIDATED_PORT", "8080")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoad_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var cfg concurrentConfig
			if err := config.Load(&cfg); err == nil {
				results[i] = cfg.Value
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestMustLoad_Panics(t *testing.T) {
	os.Unsetenv("CFG_TEST_REQUIRED_VALUE")

	type mustRequired struct {
		Value string `env:"CFG_TEST_MUST_REQUIRED,required"`
	}
	assert.Panics(t, func() {
		var cfg mustRequired
		config.MustLoad(&cfg)
	})
}
