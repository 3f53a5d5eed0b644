package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPacketRenderer_Disabled(t *testing.T) {
	t.Parallel()

	r, err := NewPacketRenderer(PacketConfig{Enabled: false}, nil)
	require.ErrorIs(t, err, ErrRendererDisabled)
	require.Nil(t, r)
}

func TestPacketConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := PacketConfig{Enabled: true}.withDefaults()
	assert.Equal(t, 25*time.Second, cfg.NavTimeout)
	assert.Equal(t, ".jv-code", cfg.RawSelector)
	assert.Equal(t, "spacepi-harvester/0.1", cfg.UserAgent)
}

func TestPacketConfig_WithDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := PacketConfig{
		Enabled:     true,
		UserAgent:   "ground-station/2.0",
		NavTimeout:  5 * time.Second,
		RawSelector: "#raw",
	}.withDefaults()
	assert.Equal(t, 5*time.Second, cfg.NavTimeout)
	assert.Equal(t, "#raw", cfg.RawSelector)
	assert.Equal(t, "ground-station/2.0", cfg.UserAgent)
}

func TestPacketRenderer_NilRendererRefusesWork(t *testing.T) {
	t.Parallel()

	var r *PacketRenderer
	_, err := r.RawPacket(context.Background(), "https://tinygs.com/packet/1249")
	require.ErrorIs(t, err, ErrRendererDisabled)
	r.Close()
}
