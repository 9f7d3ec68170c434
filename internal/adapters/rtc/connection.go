// Package rtc covers the little WebRTC the server needs: ICE configuration for
// clients and validation of session descriptions relayed during call setup.
// Media never flows through the server.
package rtc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

var ErrBadSDP = errors.New("bad session description")

// DefaultICEServers is used when no servers are configured.
var DefaultICEServers = []string{"stun:stun.l.google.com:19302"}

// Configuration builds the peer configuration handed to clients.
func Configuration(urls []string) webrtc.Configuration {
	if len(urls) == 0 {
		urls = DefaultICEServers
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: urls}},
	}
}

// ValidateSDP checks that raw is a {type, sdp} session description of one of
// the allowed types with a parseable body. Empty input is valid.
func ValidateSDP(raw json.RawMessage, allowed ...webrtc.SDPType) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSDP, err)
	}
	if desc.Type == webrtc.SDPTypeUnknown {
		return fmt.Errorf("%w: missing type", ErrBadSDP)
	}
	if len(allowed) > 0 {
		ok := false
		for _, t := range allowed {
			if desc.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: unexpected type %s", ErrBadSDP, desc.Type)
		}
	}
	if _, err := desc.Unmarshal(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSDP, err)
	}
	return nil
}
