package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T, history int) (*Mirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewMirror(client, history), mr
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func msg(id string, room domain.RoomID, i int) *domain.Message {
	return &domain.Message{
		ID:          id,
		RoomID:      room,
		UserID:      "u-a",
		DisplayName: "A",
		Content:     "content " + id,
		Type:        domain.MessageText,
		CreatedAt:   base.Add(time.Duration(i) * time.Second),
		Reactions:   []domain.Reaction{},
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	cli, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	require.NoError(t, cli.Close())

	_, err = Connect(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}

func TestMirrorNewMessagesInOrder(t *testing.T) {
	m, _ := newTestMirror(t, 10)
	ctx := context.Background()

	for i, id := range []string{"b", "a", "c"} {
		require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordNewMessage, Room: "r1", Message: msg(id, "r1", i)}))
	}
	got, err := m.Recent(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "content a", got[1].Content)
	assert.Equal(t, base.Add(time.Second), got[1].CreatedAt)

	got, err = m.Recent(ctx, "r1", 2)
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].ID)
}

func TestMirrorTrimsHistory(t *testing.T) {
	m, mr := newTestMirror(t, 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("m%d", i)
		require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordNewMessage, Room: "r1", Message: msg(id, "r1", i)}))
	}
	got, err := m.Recent(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m2", got[0].ID)

	keys, err := mr.HKeys(messagesKey("r1"))
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestMirrorPinReactDelete(t *testing.T) {
	m, _ := newTestMirror(t, 10)
	ctx := context.Background()
	first := msg("m1", "r1", 0)
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordNewMessage, Room: "r1", Message: first}))
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordNewMessage, Room: "r1", Message: msg("m2", "r1", 1)}))

	pinned := *first
	pinned.IsPinned = true
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordMessagePinned, Room: "r1", Message: &pinned, MessageID: "m1"}))

	reactions := []domain.Reaction{{Emoji: "🔥", UserID: "u-b"}}
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordReactionUpdated, Room: "r1", MessageID: "m1", Reactions: reactions}))
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordReactionUpdated, Room: "r1", MessageID: "gone", Reactions: reactions}))

	got, err := m.Recent(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsPinned)
	assert.Equal(t, reactions, got[0].Reactions)

	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordMessageDeleted, Room: "r1", MessageID: "m1"}))
	got, err = m.Recent(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].ID)
}

func TestMirrorRoomIsolationAndEviction(t *testing.T) {
	m, mr := newTestMirror(t, 10)
	ctx := context.Background()
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordNewMessage, Room: "r1", Message: msg("a", "r1", 0)}))
	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordNewMessage, Room: "r2", Message: msg("b", "r2", 0)}))

	require.NoError(t, m.Handle(ctx, app.Record{Event: app.RecordRoomEvicted, Room: "r1"}))
	assert.False(t, mr.Exists(messagesKey("r1")))
	assert.False(t, mr.Exists(orderKey("r1")))

	got, err := m.Recent(ctx, "r2", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got, err = m.Recent(ctx, "r1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMirrorIgnoresUnknownRecords(t *testing.T) {
	m, _ := newTestMirror(t, 10)
	assert.NoError(t, m.Handle(context.Background(), app.Record{Event: "userTyping", Room: "r1"}))
	assert.NoError(t, m.Handle(context.Background(), app.Record{Event: app.RecordNewMessage, Room: "r1"}))
}
