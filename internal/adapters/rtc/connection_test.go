package rtc

import (
	"encoding/json"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSDP = "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n"

func desc(t *testing.T, typ, sdp string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"type": typ, "sdp": sdp})
	require.NoError(t, err)
	return raw
}

func TestValidateSDP(t *testing.T) {
	assert.NoError(t, ValidateSDP(nil))
	assert.NoError(t, ValidateSDP(json.RawMessage("null")))
	assert.NoError(t, ValidateSDP(desc(t, "offer", minimalSDP), webrtc.SDPTypeOffer))
	assert.NoError(t, ValidateSDP(desc(t, "answer", minimalSDP)))

	assert.ErrorIs(t, ValidateSDP(desc(t, "answer", minimalSDP), webrtc.SDPTypeOffer), ErrBadSDP)
	assert.ErrorIs(t, ValidateSDP(desc(t, "offer", "hello"), webrtc.SDPTypeOffer), ErrBadSDP)
	assert.ErrorIs(t, ValidateSDP(json.RawMessage(`{"sdp":"x"}`)), ErrBadSDP)
	assert.ErrorIs(t, ValidateSDP(json.RawMessage(`[1,2]`)), ErrBadSDP)
}

func TestConfiguration(t *testing.T) {
	cfg := Configuration(nil)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, DefaultICEServers, cfg.ICEServers[0].URLs)

	cfg = Configuration([]string{"turn:turn.example.org:3478"})
	assert.Equal(t, []string{"turn:turn.example.org:3478"}, cfg.ICEServers[0].URLs)
}
