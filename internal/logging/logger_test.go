package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name        string
		development bool
		debugOn     bool
	}{
		{name: "production", development: false, debugOn: false},
		{name: "development", development: true, debugOn: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := New(tc.development)
			require.NoError(t, err)
			require.NotNil(t, logger)
			defer logger.Sync() //nolint:errcheck // best-effort flush

			assert.Equal(t, tc.debugOn, logger.Core().Enabled(zapcore.DebugLevel))
			logger.Info("logger ready")
		})
	}
}
