package app

import (
	"context"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Record kinds.
const (
	RecordNewMessage      = "newMessage"
	RecordMessagePinned   = "messagePinned"
	RecordMessageDeleted  = "messageDeleted"
	RecordReactionUpdated = "reactionUpdated"
	RecordRoomEvicted     = "roomEvicted"
)

// Record is a committed room event handed to persistence subscribers after
// it has been broadcast.
type Record struct {
	Event     string
	Room      domain.RoomID
	Message   *domain.Message
	MessageID string
	Reactions []domain.Reaction
	At        time.Time
}

// Sink consumes records. Implementations may block; they run off the loop.
type Sink interface {
	Handle(ctx context.Context, rec Record) error
}

const (
	DefaultSinkBuffer  = 256
	DefaultSinkTimeout = 2 * time.Second
)

// Fanout feeds records to every sink from its own goroutine.
type Fanout struct {
	sinks   []Sink
	queue   chan Record
	timeout time.Duration
}

func NewFanout(buffer int, sinks ...Sink) *Fanout {
	if buffer <= 0 {
		buffer = DefaultSinkBuffer
	}
	return &Fanout{
		sinks:   sinks,
		queue:   make(chan Record, buffer),
		timeout: DefaultSinkTimeout,
	}
}

// Publish never blocks. Records are dropped when the queue is full.
func (f *Fanout) Publish(rec Record) {
	if f == nil || len(f.sinks) == 0 {
		return
	}
	select {
	case f.queue <- rec:
	default:
		log.Warn().Str("module", "app.sink").Str("event", rec.Event).Str("room", string(rec.Room)).Msg("sink queue full, record dropped")
	}
}

// Run drains the queue until ctx is done.
func (f *Fanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-f.queue:
			f.handle(ctx, rec)
		}
	}
}

func (f *Fanout) handle(ctx context.Context, rec Record) {
	for _, s := range f.sinks {
		hctx, cancel := context.WithTimeout(ctx, f.timeout)
		if err := s.Handle(hctx, rec); err != nil {
			log.Error().Err(err).Str("module", "app.sink").Str("event", rec.Event).Str("room", string(rec.Room)).Msg("sink failed")
		}
		cancel()
	}
}
