// file: gate/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultWSPort, cfg.WSPort)
	assert.Equal(t, DefaultNATSURL, cfg.NATSURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.WTEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GATEWAY_HOST", "127.0.0.1")
	t.Setenv("GATEWAY_WS_PORT", "0")
	t.Setenv("GATEWAY_WT_PORT", "4433")
	t.Setenv("NATS_URL", "nats://10.0.0.1:4222")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 0, cfg.WSPort)
	assert.Equal(t, 4433, cfg.WTPort)
	assert.True(t, cfg.WTEnabled())
	assert.Equal(t, "nats://10.0.0.1:4222", cfg.NATSURL)
}

func TestFromEnvMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	var missing *MissingEnvVarError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "JWT_SECRET", missing.Key)
}

func TestFromEnvInvalidPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	for _, bad := range []string{"not-a-number", "-1", "70000"} {
		t.Setenv("GATEWAY_WS_PORT", bad)
		_, err := FromEnv()
		var invalid *InvalidPortError
		require.ErrorAs(t, err, &invalid, "value %q", bad)
		assert.Equal(t, "GATEWAY_WS_PORT", invalid.Key)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "v")
	t.Setenv("X_INT", "42")
	t.Setenv("X_BOOL", "yes")

	assert.Equal(t, "v", GetEnvStr("X_STR", "d"))
	assert.Equal(t, "d", GetEnvStr("X_MISSING", "d"))
	assert.Equal(t, 42, GetEnvInt("X_INT", 7))
	assert.Equal(t, 7, GetEnvInt("X_MISSING", 7))
	assert.True(t, GetEnvBool("X_BOOL", false))
	assert.False(t, GetEnvBool("X_MISSING", false))
}
