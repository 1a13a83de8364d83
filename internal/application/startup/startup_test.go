package startup

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestApplyChannelLevels(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{Writer: &out, JSONFormat: true, DefaultLevel: slog.LevelInfo})
	require.NoError(t, err)

	require.NoError(t, ApplyChannelLevels(logger, " integrity=debug , database=error,"))
	logger.Integrity().Debug("scan detail")
	logger.Database().Warn("slow")
	assert.Contains(t, out.String(), "scan detail")
	assert.NotContains(t, out.String(), "slow")

	assert.Error(t, ApplyChannelLevels(logger, "integrity"))
	assert.Error(t, ApplyChannelLevels(logger, "nope=debug"))
	assert.NoError(t, ApplyChannelLevels(logger, ""))
}
