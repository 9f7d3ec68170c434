package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(s *session, cancel context.CancelFunc) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(s.id)).Msg("readPump closing")
		cancel()
		s.conn.Close()
		ctl.limiter.Forget(s.id)
		if err := ctl.Orch.Submit(context.Background(), orch.Disconnect{Conn: s.id}); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("disconnect not delivered")
		}
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	_ = s.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.conn.SetPongHandler(func(string) error {
		return s.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("readPump read error")
			}
			return
		}
		_ = s.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
		ctl.handleSignal(s, data)
	}
}

func (ctl *SignalWSController) handleSignal(s *session, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("bad json")
		ctl.sendError(s, "", "bad_json")
		return
	}

	if limited[env.Type] && !ctl.limiter.Allow(s.id) {
		log.Warn().Str("module", "signal").Str("conn", string(s.id)).Str("type", env.Type).Msg("rate limited")
		ctl.sendError(s, env.Type, "rate_limited")
		return
	}

	switch env.Type {
	case "joinRoom":
		ctl.handleJoin(s, env.Payload)
	case "leaveRoom":
		ctl.handleLeave(s, env.Payload)
	case "sendMessage":
		ctl.handleSendMessage(s, env.Payload)
	case "fileUploaded":
		ctl.handleFileUploaded(s, env.Payload)
	case "pinMessage":
		ctl.handlePin(s, env.Payload)
	case "deleteMessage":
		ctl.handleDelete(s, env.Payload)
	case "addReaction":
		ctl.handleReaction(s, env.Payload)
	case "typing":
		ctl.handleTyping(s, env.Payload)
	case "callUser":
		ctl.handleCallUser(s, env.Payload)
	case "answerCall":
		ctl.handleAnswerCall(s, env.Payload)
	case "callEnded":
		ctl.handleCallEnded(s, env.Payload)
	case "ping":
		ctl.handlePing(s)
	case "whoami":
		ctl.handleWhoAmI(s)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(s, env.Type, "unknown_event")
	}
}

// limited lists the events that count against the rate limit.
var limited = map[string]bool{
	"sendMessage":  true,
	"fileUploaded": true,
	"addReaction":  true,
	"typing":       true,
	"callUser":     true,
}

// decode unmarshals and validates a payload, answering with a private error
// on failure.
func (ctl *SignalWSController) decode(s *session, event string, raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", event).Msg("bad payload")
		ctl.sendError(s, event, "bad_payload")
		return false
	}
	if err := ctl.validate.Struct(v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", event).Msg("invalid payload")
		ctl.sendError(s, event, err.Error())
		return false
	}
	return true
}

func (ctl *SignalWSController) submit(s *session, ev orch.Event) {
	if err := ctl.Orch.Submit(s.ctx, ev); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msgf("submit %T", ev)
	}
}

func (ctl *SignalWSController) sendJSON(s *session, event string, payload any) {
	frame, err := app.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = s.conn.TrySend(frame)
}

func (ctl *SignalWSController) sendError(s *session, event, msg string) {
	ctl.sendJSON(s, orch.EvError, map[string]string{"event": event, "error": msg})
}
