// Package redis mirrors room message events into Redis so that external
// readers can serve recent history without touching the live process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultHistory = 200

// Connect connects to the Redis server and pings the server to ensure the
// connection is working.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return cli, nil
}

func messagesKey(room domain.RoomID) string {
	return "room:" + string(room) + ":messages"
}

func orderKey(room domain.RoomID) string {
	return "room:" + string(room) + ":order"
}

// Mirror keeps, per room, a hash of message id to JSON and a sorted set of
// ids scored by creation time.
type Mirror struct {
	cli     redis.Cmdable
	history int64
}

func NewMirror(cli redis.Cmdable, history int) *Mirror {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Mirror{cli: cli, history: int64(history)}
}

// Handle implements app.Sink.
func (m *Mirror) Handle(ctx context.Context, rec app.Record) error {
	switch rec.Event {
	case app.RecordNewMessage, app.RecordMessagePinned:
		if rec.Message == nil {
			return nil
		}
		return m.put(ctx, *rec.Message)
	case app.RecordMessageDeleted:
		return m.remove(ctx, rec.Room, rec.MessageID)
	case app.RecordReactionUpdated:
		return m.setReactions(ctx, rec.Room, rec.MessageID, rec.Reactions)
	case app.RecordRoomEvicted:
		if err := m.cli.Del(ctx, messagesKey(rec.Room), orderKey(rec.Room)).Err(); err != nil {
			return fmt.Errorf("del: %w", err)
		}
	}
	return nil
}

func (m *Mirror) put(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = m.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, messagesKey(msg.RoomID), msg.ID, data)
		pipe.ZAdd(ctx, orderKey(msg.RoomID), redis.Z{Score: float64(msg.CreatedAt.UnixNano()), Member: msg.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	return m.trim(ctx, msg.RoomID)
}

func (m *Mirror) trim(ctx context.Context, room domain.RoomID) error {
	n, err := m.cli.ZCard(ctx, orderKey(room)).Result()
	if err != nil {
		return fmt.Errorf("zcard: %w", err)
	}
	if n <= m.history {
		return nil
	}
	stale, err := m.cli.ZRange(ctx, orderKey(room), 0, n-m.history-1).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	members := make([]any, len(stale))
	for i, id := range stale {
		members[i] = id
	}
	_, err = m.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, orderKey(room), members...)
		pipe.HDel(ctx, messagesKey(room), stale...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	log.Debug().Str("module", "store.redis").Str("room", string(room)).Int("trimmed", len(stale)).Msg("history trimmed")
	return nil
}

func (m *Mirror) remove(ctx context.Context, room domain.RoomID, id string) error {
	_, err := m.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, messagesKey(room), id)
		pipe.ZRem(ctx, orderKey(room), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove message: %w", err)
	}
	return nil
}

func (m *Mirror) setReactions(ctx context.Context, room domain.RoomID, id string, reactions []domain.Reaction) error {
	raw, err := m.cli.HGet(ctx, messagesKey(room), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("hget: %w", err)
	}
	var msg domain.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if reactions == nil {
		reactions = []domain.Reaction{}
	}
	msg.Reactions = reactions
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := m.cli.HSet(ctx, messagesKey(room), id, data).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

// Recent returns up to n most recent messages of room, oldest first.
func (m *Mirror) Recent(ctx context.Context, room domain.RoomID, n int) ([]domain.Message, error) {
	if n <= 0 {
		return []domain.Message{}, nil
	}
	ids, err := m.cli.ZRange(ctx, orderKey(room), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange: %w", err)
	}
	out := make([]domain.Message, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := m.cli.HMGet(ctx, messagesKey(room), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget: %w", err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var msg domain.Message
		if err := json.Unmarshal([]byte(s), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
