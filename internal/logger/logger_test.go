package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"development", "production", "PROD", ""} {
		t.Run(mode, func(t *testing.T) {
			l, err := New(mode)
			require.NoError(t, err)
			require.NotNil(t, l.SugaredLogger)
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "Test").Warn("corrupt unit skipped", "unit", "shot_abc123")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "corrupt unit skipped", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Test", fields["service"])
	assert.Equal(t, "shot_abc123", fields["unit"])
}
