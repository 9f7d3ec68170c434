package signal

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/adapters/rtc"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleCallUser(s *session, raw json.RawMessage) {
	var p callUserPayload
	if !ctl.decode(s, "callUser", raw, &p) {
		return
	}
	if err := rtc.ValidateSDP(p.SDP, webrtc.SDPTypeOffer); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("callUser sdp")
		ctl.sendError(s, "callUser", err.Error())
		return
	}
	targets := make([]domain.UserID, 0, len(p.TargetIDs)+1)
	seen := make(map[string]bool, len(p.TargetIDs)+1)
	for _, id := range append([]string{p.TargetID}, p.TargetIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, domain.UserID(id))
	}
	ctl.submit(s, orch.CallUser{
		Conn:    s.id,
		Targets: targets,
		Type:    domain.CallType(p.Type),
		Room:    domain.RoomID(p.RoomID),
		SDP:     p.SDP,
	})
}

func (ctl *SignalWSController) handleAnswerCall(s *session, raw json.RawMessage) {
	var p answerCallPayload
	if !ctl.decode(s, "answerCall", raw, &p) {
		return
	}
	if err := rtc.ValidateSDP(p.SDP, webrtc.SDPTypeAnswer); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("answerCall sdp")
		ctl.sendError(s, "answerCall", err.Error())
		return
	}
	ctl.submit(s, orch.AnswerCall{
		Conn:     s.id,
		To:       domain.UserID(p.ToID),
		Accepted: p.Accepted,
		Room:     domain.RoomID(p.RoomID),
		SDP:      p.SDP,
	})
}

func (ctl *SignalWSController) handleCallEnded(s *session, raw json.RawMessage) {
	var p callEndedPayload
	if !ctl.decode(s, "callEnded", raw, &p) {
		return
	}
	ctl.submit(s, orch.EndCall{Conn: s.id, To: domain.UserID(p.ToID)})
}
