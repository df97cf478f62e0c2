//go:build unit

package logging_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/alexandremahdhaoui/vmpatch/internal/util/logging"
)

func TestSetup(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	logger, flush, err := logging.Setup(logging.Options{Development: true, Level: slog.LevelDebug})
	require.NoError(t, err)

	defer flush()

	assert.True(t, logger.V(1).Enabled())
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))

	_, flush, err = logging.Setup(logging.DefaultOptions())
	require.NoError(t, err)

	defer flush()

	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelError))
}

func TestZapLevel(t *testing.T) {
	for in, expected := range map[slog.Level]zapcore.Level{
		slog.LevelDebug - 4: zapcore.Level(-8),
		slog.LevelDebug:     zapcore.Level(-4),
		-1:                  zapcore.DebugLevel,
		slog.LevelInfo:      zapcore.InfoLevel,
		slog.LevelWarn:      zapcore.WarnLevel,
		slog.LevelError:     zapcore.ErrorLevel,
	} {
		assert.Equal(t, expected, logging.ZapLevel(in), in.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, expected := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		actual, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, actual, in)
	}

	_, err := logging.ParseLevel("verbose")
	assert.Error(t, err)
}
