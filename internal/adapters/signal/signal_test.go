package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	o := orch.New(orch.Options{})
	go o.Run(ctx)

	ctl := NewSignalWSController(o, app.NewStaticRoles("member", []string{"u-admin"}), opts)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, params url.Values) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + params.Encode()
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func login(t *testing.T, srv *httptest.Server, user, name string) *websocket.Conn {
	t.Helper()
	return dial(t, srv, url.Values{"userId": {user}, "displayName": {name}})
}

func send(t *testing.T, ws *websocket.Conn, event string, payload any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]any{"type": event, "payload": payload}))
}

// expect reads frames until one of type typ arrives.
func expect(t *testing.T, ws *websocket.Conn, typ string) frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, ws.SetReadDeadline(deadline))
		var f frame
		require.NoError(t, ws.ReadJSON(&f), "waiting for %s", typ)
		if f.Type == typ {
			return f
		}
	}
}

func TestHandshakeRefused(t *testing.T) {
	srv := newServer(t, Options{})
	for _, params := range []url.Values{
		{"userId": {"u-a"}},
		{"displayName": {"A"}},
		{},
	} {
		ws := dial(t, srv, params)
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := ws.ReadMessage()
		require.Error(t, err)
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	}
}

func TestChatOverWebSocket(t *testing.T) {
	srv := newServer(t, Options{})
	a := login(t, srv, "u-a", "A")
	b := dial(t, srv, url.Values{"userId": {"u-b"}, "username": {"B"}})

	send(t, a, "joinRoom", map[string]string{"roomId": "r1"})
	f := expect(t, a, "loadMessages")
	assert.JSONEq(t, `[]`, string(f.Payload))
	expect(t, a, "userJoined")

	send(t, b, "joinRoom", map[string]string{"roomId": "r1"})
	f = expect(t, a, "updateUsers")
	var members []domain.Member
	require.NoError(t, json.Unmarshal(f.Payload, &members))
	require.Len(t, members, 2)
	assert.Equal(t, "B", members[1].DisplayName)

	send(t, a, "sendMessage", map[string]any{"roomId": "r1", "message": map[string]string{"content": "hi", "type": "text"}})
	var ma, mb domain.Message
	require.NoError(t, json.Unmarshal(expect(t, a, "newMessage").Payload, &ma))
	require.NoError(t, json.Unmarshal(expect(t, b, "newMessage").Payload, &mb))
	assert.Equal(t, ma.ID, mb.ID)
	assert.Equal(t, "hi", mb.Content)

	send(t, b, "addReaction", map[string]string{"roomId": "r1", "messageId": ma.ID, "emoji": "👍"})
	f = expect(t, a, "reactionUpdated")
	assert.JSONEq(t, `{"messageId":"`+ma.ID+`","reactions":[{"emoji":"👍","user_id":"u-b"}]}`, string(f.Payload))

	send(t, b, "pinMessage", map[string]string{"roomId": "r1", "messageId": ma.ID})
	f = expect(t, b, "error")
	assert.Contains(t, string(f.Payload), "forbidden")
}

func TestAdminPinsOverWebSocket(t *testing.T) {
	srv := newServer(t, Options{})
	admin := login(t, srv, "u-admin", "Root")
	send(t, admin, "joinRoom", map[string]string{"roomId": "r1"})
	expect(t, admin, "userJoined")

	send(t, admin, "sendMessage", map[string]any{"roomId": "r1", "message": map[string]string{"content": "rules"}})
	var m domain.Message
	require.NoError(t, json.Unmarshal(expect(t, admin, "newMessage").Payload, &m))

	send(t, admin, "pinMessage", map[string]string{"roomId": "r1", "messageId": m.ID})
	f := expect(t, admin, "messagePinned")
	assert.JSONEq(t, `{"messageId":"`+m.ID+`","isPinned":true}`, string(f.Payload))
}

func TestInvalidPayloadsGetPrivateErrors(t *testing.T) {
	srv := newServer(t, Options{})
	a := login(t, srv, "u-a", "A")

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f := expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "bad_json")

	send(t, a, "joinRoom", map[string]string{})
	f = expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "RoomID")

	send(t, a, "callUser", map[string]any{"targetId": "u-b", "type": "hologram"})
	f = expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "oneof")

	send(t, a, "callUser", map[string]any{"targetId": "u-b", "sdp": map[string]string{"type": "offer", "sdp": "junk"}})
	f = expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "bad session description")

	send(t, a, "teleport", nil)
	f = expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "unknown_event")

	send(t, a, "ping", nil)
	expect(t, a, "pong")
}

func TestCallSignalingOverWebSocket(t *testing.T) {
	srv := newServer(t, Options{})
	a := login(t, srv, "u-a", "A")
	b := login(t, srv, "u-b", "B")

	send(t, a, "whoami", nil)
	expect(t, a, "whoami")
	send(t, b, "whoami", nil)
	expect(t, b, "whoami")

	send(t, a, "callUser", map[string]any{"targetId": "u-b", "type": "video", "roomId": "r1"})
	f := expect(t, b, "incomingCall")
	assert.JSONEq(t, `{"fromId":"u-a","fromName":"A","type":"video","roomId":"r1"}`, string(f.Payload))

	send(t, a, "callUser", map[string]any{"targetId": "u-ghost"})
	f = expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "target offline")

	require.NoError(t, a.Close())
	f = expect(t, b, "callEnded")
	assert.JSONEq(t, `{"fromId":"u-a"}`, string(f.Payload))
}

func TestRateLimitedEvents(t *testing.T) {
	srv := newServer(t, Options{RateEvents: 2, RateInterval: time.Minute})
	a := login(t, srv, "u-a", "A")
	for i := 0; i < 3; i++ {
		send(t, a, "typing", map[string]any{"roomId": "r1", "isTyping": true})
	}
	f := expect(t, a, "error")
	assert.Contains(t, string(f.Payload), "rate_limited")
}
