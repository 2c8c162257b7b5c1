package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("Production logger", func(t *testing.T) {
		logger, err := New("warn", false)
		require.NoError(t, err)

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
		assert.Equal(t, logger, zap.L())
	})

	t.Run("Development logger", func(t *testing.T) {
		logger, err := New("debug", true)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Invalid level", func(t *testing.T) {
		_, err := New("loud", false)
		assert.Error(t, err)
	})

	zap.ReplaceGlobals(zap.NewNop())
}
