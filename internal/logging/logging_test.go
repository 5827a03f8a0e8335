package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ChangeCaps/robots-or-smth/internal/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LoggingConfig
		level    zapcore.Level
		encoding string
	}{
		{"console debug", config.LoggingConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel, "console"},
		{"json warn", config.LoggingConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel, "json"},
		{"unknown level", config.LoggingConfig{Level: "chatty"}, zapcore.InfoLevel, "console"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config(tt.cfg)
			assert.Equal(t, tt.level, c.Level.Level())
			assert.Equal(t, tt.encoding, c.Encoding)
		})
	}
}

func TestConsoleIsCompact(t *testing.T) {
	c := Config(config.LoggingConfig{Format: "console"})
	assert.True(t, c.DisableCaller)
	assert.True(t, c.DisableStacktrace)
	assert.Equal(t, "  ", c.EncoderConfig.ConsoleSeparator)
}

func TestNew(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}
