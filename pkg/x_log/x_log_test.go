// file: gate/pkg/x_log/x_log_test.go
package x_log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { rootLogger = newRootLogger() })

	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, Logger().GetLevel())

	assert.Error(t, SetLevel("nonsense"))
}

func TestStructuredOutput(t *testing.T) {
	t.Cleanup(func() { rootLogger = newRootLogger() })

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	Info().Str("subject", "t.v1.m").Msg("delivered")

	out := buf.String()
	assert.Contains(t, out, `"subject":"t.v1.m"`)
	assert.Contains(t, out, `"message":"delivered"`)
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(func() { rootLogger = newRootLogger() })

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	Debug().Msg("hidden")
	Warn().Msg("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestConsoleWriterStyles(t *testing.T) {
	var buf bytes.Buffer
	w := zerolog.ConsoleWriter{Out: &buf, NoColor: true}
	ApplyStyles(&w, DefaultStyles())

	logger := zerolog.New(w)
	logger.Info().Str("k", "v").Msg("styled")

	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "styled")
}
