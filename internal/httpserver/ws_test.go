package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/transport"
)

func dialChat(t *testing.T, srv *httptest.Server, roomPath string, cookies ...*http.Cookie) (*websocket.Conn, error) {
	t.Helper()
	return dialChatFrom(t, srv, roomPath, srv.URL, cookies...)
}

func dialChatFrom(t *testing.T, srv *httptest.Server, roomPath, origin string, cookies ...*http.Cookie) (*websocket.Conn, error) {
	t.Helper()
	cfg, err := websocket.NewConfig("ws"+strings.TrimPrefix(srv.URL, "http")+roomPath, origin)
	require.NoError(t, err)
	for _, ck := range cookies {
		cfg.Header.Add("Cookie", ck.String())
	}
	return websocket.DialConfig(cfg)
}

func readFrame(t *testing.T, ws *websocket.Conn) hub.Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f hub.Frame
	require.NoError(t, websocket.JSON.Receive(ws, &f))
	return f
}

func TestChatWS_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.E)
	defer srv.Close()

	sid := session("ws-owner-token")
	rec := env.doJSONRequest(http.MethodGet, "/api/v1/chat/user", nil, sid)
	require.Equal(t, http.StatusOK, rec.Code)
	room := decode[transport.RoomView](t, rec)
	path := "/ws/chat/" + itoa(room.ID)

	ws, err := dialChat(t, srv, path, sid)
	require.NoError(t, err)
	defer ws.Close()

	f := readFrame(t, ws)
	assert.Equal(t, hub.FrameConnected, f.Type)
	assert.Equal(t, "Connected to chat", f.Message)

	require.NoError(t, websocket.Message.Send(ws, "{not json"))
	f = readFrame(t, ws)
	assert.Equal(t, hub.FrameError, f.Type)
	assert.Equal(t, "Invalid JSON", f.Message)

	require.NoError(t, websocket.Message.Send(ws, `{"message":"   "}`))
	f = readFrame(t, ws)
	assert.Equal(t, "Message cannot be empty", f.Message)

	require.NoError(t, websocket.Message.Send(ws, `{"message":"hi","sender_type":"admin"}`))
	f = readFrame(t, ws)
	assert.Equal(t, hub.FrameError, f.Type)

	require.NoError(t, websocket.Message.Send(ws, `{"message":"hello there","sender_type":"user"}`))
	f = readFrame(t, ws)
	assert.Equal(t, hub.FrameMessage, f.Type)
	assert.Equal(t, "hello there", f.Message)
	assert.Equal(t, "user", f.SenderType)
	assert.Equal(t, "Guest", f.SenderName)
	assert.NotZero(t, f.ID)
	require.NotNil(t, f.CreatedAt)

	// A REST post reaches the live socket too.
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/chat/user/send_message", map[string]string{"message": "via rest"}, sid)
	require.Equal(t, http.StatusCreated, rec.Code)
	f = readFrame(t, ws)
	assert.Equal(t, "via rest", f.Message)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/chat/user", nil, sid)
	assert.Len(t, decode[transport.RoomView](t, rec).Messages, 2)
}

func TestChatWS_RejectsForeignRoom(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.E)
	defer srv.Close()

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/chat/user", nil, session("owner"))
	room := decode[transport.RoomView](t, rec)

	_, err := dialChat(t, srv, "/ws/chat/"+itoa(room.ID), session("intruder"))
	assert.Error(t, err)

	_, err = dialChat(t, srv, "/ws/chat/9999", session("owner"))
	assert.Error(t, err)

	rec = env.doJSONRequest(http.MethodGet, "/ws/chat/"+itoa(room.ID), nil, session("intruder"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChatWS_RejectsCrossSiteOrigin(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.E)
	defer srv.Close()

	sid := session("ws-origin-owner")
	rec := env.doJSONRequest(http.MethodGet, "/api/v1/chat/user", nil, sid)
	room := decode[transport.RoomView](t, rec)
	path := "/ws/chat/" + itoa(room.ID)

	_, err := dialChatFrom(t, srv, path, "http://evil.example", sid)
	assert.Error(t, err)

	ws, err := dialChat(t, srv, path, sid)
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, hub.FrameConnected, readFrame(t, ws).Type)
}

func TestChatWS_HandshakeAllowList(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantErr bool
	}{
		{name: "listed", allowed: []string{"https://shop.example"}, origin: "https://shop.example"},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://other.example"},
		{name: "unlisted", allowed: []string{"https://shop.example"}, origin: "https://evil.example", wantErr: true},
		{name: "no origin header", allowed: []string{"https://shop.example"}},
		{name: "same host by default", origin: "http://api.example:8080"},
		{name: "other host by default", origin: "http://evil.example", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &ChatWS{AllowedOrigins: tt.allowed}
			req := httptest.NewRequest(http.MethodGet, "http://api.example:8080/ws/chat/1", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			err := h.handshake(nil, req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
