package orch

import (
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleCallUser(e CallUser) {
	c, ok := o.Registry.Get(e.Conn)
	if !ok {
		return
	}
	for _, target := range e.Targets {
		if target == c.Identity.UserID {
			continue
		}
		s, err := o.Calls.Initiate(c.Identity, e.Conn, target, e.Type)
		if err != nil {
			log.Info().Err(err).Str("module", "orch").Str("conn", string(e.Conn)).Str("target", string(target)).Msg("call not placed")
			o.Out.ToConn(e.Conn, EvError, errorPayload{Event: "callUser", Error: err.Error(), TargetID: target})
			continue
		}
		o.Out.ToUser(target, EvIncomingCall, incomingCallPayload{
			FromID:   c.Identity.UserID,
			FromName: c.Identity.DisplayName,
			Type:     s.Type,
			RoomID:   e.Room,
			SDP:      e.SDP,
		})
		log.Info().Str("module", "orch").Str("from", string(c.Identity.UserID)).Str("to", string(target)).Str("type", string(s.Type)).Msg("call ringing")
	}
}

func (o *Orchestrator) handleAnswerCall(e AnswerCall) {
	c, ok := o.Registry.Get(e.Conn)
	if !ok {
		return
	}
	s, ok := o.Calls.Respond(c.Identity.UserID, e.To, e.Accepted)
	if !ok {
		log.Debug().Str("module", "orch").Str("conn", string(e.Conn)).Str("to", string(e.To)).Msg("answer without ringing call")
		return
	}
	o.Out.ToUser(e.To, EvCallResponse, callResponsePayload{
		Accepted: s.Status == domain.CallActive,
		FromID:   c.Identity.UserID,
		RoomID:   e.Room,
		SDP:      e.SDP,
	})
}

func (o *Orchestrator) handleEndCall(e EndCall) {
	c, ok := o.Registry.Get(e.Conn)
	if !ok {
		return
	}
	if _, ok := o.Calls.End(c.Identity.UserID, e.To); !ok {
		return
	}
	o.Out.ToUser(e.To, EvCallEnded, callEndedPayload{FromID: c.Identity.UserID})
}
