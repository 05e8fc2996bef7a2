package logger

import (
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New(config.LogConfig{Level: "debug", Encoding: "console", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(config.LogConfig{Level: "info", Encoding: "xml"})
	assert.Error(t, err)
}
