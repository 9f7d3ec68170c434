package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/validate"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	DefaultSendBuffer = 64
	DefaultReadLimit  = 32768
	DefaultPingPeriod = 54 * time.Second
	writeWait         = 5 * time.Second
	roleLookupTimeout = 2 * time.Second
)

type Options struct {
	SendBuffer    int
	ReadLimit     int64
	PingPeriod    time.Duration
	RateEvents    int
	RateInterval  time.Duration
	AllowedOrigin func(r *http.Request) bool
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Roles    app.RoleResolver
	validate *validate.Validator
	limiter  *RateLimiter
	upgrader websocket.Upgrader
	opts     Options
}

func NewSignalWSController(o *orch.Orchestrator, roles app.RoleResolver, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = DefaultPingPeriod
	}
	if opts.AllowedOrigin == nil {
		opts.AllowedOrigin = func(r *http.Request) bool { return true }
	}
	if roles == nil {
		roles = app.NewStaticRoles(string(domain.RoleMember), nil)
	}
	return &SignalWSController{
		Orch:     o,
		Roles:    roles,
		validate: validate.New(),
		limiter:  NewRateLimiter(opts.RateEvents, opts.RateInterval),
		upgrader: websocket.Upgrader{CheckOrigin: opts.AllowedOrigin},
		opts:     opts,
	}
}

// WsSignalConn is the outbound half of a socket. Frames are queued and
// written by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// session is the read side state of one admitted connection.
type session struct {
	ctx      context.Context
	id       domain.ConnectionID
	identity domain.Identity
	conn     *WsSignalConn
}

func handshakeParam(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	identity, idErr := domain.NewIdentity(
		handshakeParam(c, "userId"),
		handshakeParam(c, "displayName", "username"),
	)

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	if idErr != nil {
		log.Warn().Err(idErr).Str("module", "signal").Str("ct", token).Msg("handshake refused")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid handshake")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	id := domain.ConnectionID(uuid.Must(uuid.NewV7()).String())
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	err = ctl.Orch.Submit(ctx, orch.Connect{
		Conn:     id,
		Identity: identity,
		Signal:   conn,
		Cancel:   cancel,
		Done:     done,
	})
	if err == nil {
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("user", string(identity.UserID)).Msg("admit failed")
		cancel()
		conn.Close()
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).Str("user", string(identity.UserID)).Str("ct", token).Msg("new WS connection")

	ws.SetReadLimit(ctl.opts.ReadLimit)
	s := &session{ctx: ctx, id: id, identity: identity, conn: conn}
	go ctl.writePump(ctx, conn)
	go ctl.readPump(s, cancel)
}
