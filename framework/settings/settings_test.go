package settings_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/settings"
)

// ── helpers ──────────────────────────────────────────────────────────────────

var settingsKeys = []string{
	"APP_NAME", "APP_ENV", "APP_DEBUG",
	"IOC_SOURCES", "IOC_EAGER_INIT", "IOC_LOG_LEVEL", "IOC_LOG_FORMAT",
	"IOC_INSPECT_ENABLED", "IOC_INSPECT_ADDR",
}

// clearEnv unsets keys for the duration of the test. godotenv never
// overrides variables that exist, even empty ones.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, settingsKeys...)
	s := settings.Load("testdata/empty.env")

	assert.Equal(t, "go-ioc", s.App.Name)
	assert.Equal(t, "local", s.App.Env)
	assert.False(t, s.App.Debug)
	assert.Empty(t, s.Container.Sources)
	assert.True(t, s.Container.EagerInit)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "text", s.Log.Format)
	assert.False(t, s.Inspect.Enabled)
	assert.Equal(t, ":8000", s.Inspect.Addr)
	assert.True(t, s.IsLocal())
	require.NoError(t, s.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t, settingsKeys...)
	s := settings.Load("testdata/app.env")

	assert.Equal(t, "inventory", s.App.Name)
	assert.True(t, s.IsTesting())
	assert.Equal(t, []string{"app.xml", "extra.yaml"}, s.Container.Sources)
	assert.Equal(t, "debug", s.Log.Level)
	assert.True(t, s.Inspect.Enabled)
	require.NoError(t, s.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t, settingsKeys...)
	t.Setenv("APP_NAME", "from-env")
	t.Setenv("IOC_EAGER_INIT", "false")

	s := settings.Load("testdata/app.env")
	assert.Equal(t, "from-env", s.App.Name)
	assert.False(t, s.Container.EagerInit)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t, settingsKeys...)
	s := settings.Load("testdata/does-not-exist.env")
	assert.Equal(t, "go-ioc", s.App.Name)
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"log level", "IOC_LOG_LEVEL", "verbose"},
		{"log format", "IOC_LOG_FORMAT", "xml"},
		{"inspect addr", "IOC_INSPECT_ADDR", "8000"},
		{"source extension", "IOC_SOURCES", "app.xml,app.ini"},
		{"env name", "APP_ENV", "prod env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, settingsKeys...)
			t.Setenv(tt.key, tt.value)

			err := settings.Load("testdata/empty.env").Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

// ── Get / GetBool / GetList ──────────────────────────────────────────────────

func TestGet(t *testing.T) {
	t.Setenv("CUSTOM_KEY", "hello")
	assert.Equal(t, "hello", settings.Get("CUSTOM_KEY", "default"))

	clearEnv(t, "MISSING_KEY")
	assert.Equal(t, "fallback", settings.Get("MISSING_KEY", "fallback"))
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		t.Setenv("BOOL_KEY", val)
		assert.True(t, settings.GetBool("BOOL_KEY", false), val)
	}
	t.Setenv("BOOL_KEY", "notabool")
	assert.True(t, settings.GetBool("BOOL_KEY", true))
}

func TestGetList(t *testing.T) {
	t.Setenv("LIST_KEY", " a.xml, ,b.yaml ,")
	assert.Equal(t, []string{"a.xml", "b.yaml"}, settings.GetList("LIST_KEY"))
}
