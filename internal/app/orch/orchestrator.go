package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultInboxSize = 1024

var ErrStopped = errors.New("orchestrator stopped")

type Options struct {
	Policy         app.Policy
	Sink           *app.Fanout
	InboxSize      int
	TypingDebounce time.Duration
	HistoryLimit   int
	AfterFunc      core.AfterFunc
}

// Orchestrator owns all room and connection state. Every mutation happens on
// the goroutine running Run, one event at a time.
type Orchestrator struct {
	Registry *app.Registry
	Presence *core.PresenceTracker
	Messages *core.MessageLog
	Typing   *core.TypingAggregator
	Calls    *core.CallCoordinator
	Out      *app.Broadcaster
	Sink     *app.Fanout

	inbox chan Event
	done  chan struct{}
}

func New(opts Options) *Orchestrator {
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	reg := app.NewRegistry()
	presence := core.NewPresenceTracker()
	o := &Orchestrator{
		Registry: reg,
		Presence: presence,
		Messages: core.NewMessageLog(core.WithHistoryLimit(opts.HistoryLimit)),
		Calls:    core.NewCallCoordinator(reg),
		Out:      app.NewBroadcaster(reg, presence, opts.Policy),
		Sink:     opts.Sink,
		inbox:    make(chan Event, opts.InboxSize),
		done:     make(chan struct{}),
	}
	o.Typing = core.NewTypingAggregator(opts.TypingDebounce, opts.AfterFunc, func(exp core.TypingExpiry) {
		_ = o.Submit(context.Background(), typingExpired{exp: exp})
	})
	return o
}

// Run processes events until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("module", "orch").Msg("event loop started")
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("event loop stopped")
			return nil
		case ev := <-o.inbox:
			o.Dispatch(ev)
		}
	}
}

// Submit queues ev for the loop. It blocks while the inbox is full.
func (o *Orchestrator) Submit(ctx context.Context, ev Event) error {
	select {
	case <-o.done:
		return ErrStopped
	default:
	}
	select {
	case o.inbox <- ev:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop and waits for it to finish.
func (o *Orchestrator) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := o.Submit(ctx, Query{Fn: fn, Done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch handles one event. It must only be called from the loop.
func (o *Orchestrator) Dispatch(ev Event) {
	switch e := ev.(type) {
	case Connect:
		o.handleConnect(e)
	case Disconnect:
		o.handleDisconnect(e)
	case JoinRoom:
		o.handleJoin(e)
	case LeaveRoom:
		o.handleLeave(e)
	case SendMessage:
		o.handleSendMessage(e)
	case FileUploaded:
		o.handleFileUploaded(e)
	case PinMessage:
		o.handlePin(e)
	case DeleteMessage:
		o.handleDelete(e)
	case AddReaction:
		o.handleReaction(e)
	case Typing:
		o.handleTyping(e)
	case typingExpired:
		o.handleTypingExpired(e)
	case CallUser:
		o.handleCallUser(e)
	case AnswerCall:
		o.handleAnswerCall(e)
	case EndCall:
		o.handleEndCall(e)
	case EvictRoom:
		o.handleEvict(e)
	case Query:
		e.Fn()
		close(e.Done)
	default:
		log.Warn().Str("module", "orch").Msgf("unhandled event %T", ev)
	}
}

// reject reports a failed action privately to its sender. Unknown rooms and
// messages are dropped silently.
func (o *Orchestrator) reject(conn domain.ConnectionID, event string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("event", event).Msg("dropped")
		return
	}
	log.Warn().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("event", event).Msg("rejected")
	o.Out.ToConn(conn, EvError, errorPayload{Event: event, Error: err.Error()})
}

func (o *Orchestrator) publish(rec app.Record) {
	rec.At = time.Now().UTC()
	o.Sink.Publish(rec)
}
