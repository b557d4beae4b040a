package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

// ChatWS serves the live chat socket of one room.
type ChatWS struct {
	Svc *service.ChatService
	Hub *hub.Hub
	// AllowedOrigins limits the Origin header of upgrade requests. Empty means same host only.
	AllowedOrigins []string
}

type inboundFrame struct {
	Message    string `json:"message"`
	SenderType string `json:"sender_type"`
}

func (h *ChatWS) Serve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.ws")

	roomID, err := parseID(c.Param("room_id"))
	if err != nil {
		return badRequest(c, l, "ws_connect", "invalid room id", err)
	}
	caller := authmw.CallerFrom(c)
	if _, err := h.Svc.AuthorizeRoom(ctx, caller, roomID); err != nil {
		return fail(c, l, "ws_connect", err)
	}

	srv := websocket.Server{
		Handshake: h.handshake,
		Handler: func(ws *websocket.Conn) {
			h.session(ctx, l.With("room_id", roomID), ws, caller, roomID)
		},
	}
	srv.ServeHTTP(c.Response(), c.Request())
	return nil
}

// handshake checks the Origin header. With no allowed origins configured a
// browser origin must name the host being dialed. Requests without an Origin
// header come from non-browser clients and pass.
func (h *ChatWS) handshake(_ *websocket.Config, req *http.Request) error {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return nil
	}
	if len(h.AllowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil || !strings.EqualFold(u.Host, req.Host) {
			return fmt.Errorf("origin %q not allowed", origin)
		}
		return nil
	}
	for _, o := range h.AllowedOrigins {
		if o == "*" || o == origin {
			return nil
		}
	}
	return fmt.Errorf("origin %q not allowed", origin)
}

func (h *ChatWS) session(ctx context.Context, l *slog.Logger, ws *websocket.Conn, caller identity.Caller, roomID uint) {
	defer ws.Close()
	// Server read/write timeouts carry over to the hijacked connection.
	_ = ws.SetDeadline(time.Time{})

	sub := h.Hub.Join(roomID)
	defer sub.Close()

	var mu sync.Mutex
	send := func(f hub.Frame) error {
		mu.Lock()
		defer mu.Unlock()
		return websocket.JSON.Send(ws, f)
	}

	if err := send(hub.Frame{Type: hub.FrameConnected, Message: "Connected to chat"}); err != nil {
		l.Warn("ws_send_error", "error", err)
		return
	}
	l.Info("ws_connected", "caller", caller.Identity.String())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for f := range sub.C {
			if err := send(f); err != nil {
				l.Debug("ws_send_error", "error", err)
				return
			}
		}
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			break
		}

		var in inboundFrame
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			_ = send(hub.Frame{Type: hub.FrameError, Message: "Invalid JSON"})
			continue
		}

		_, err := h.Svc.PostAs(ctx, caller, roomID, in.SenderType, in.Message)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrEmptyMessage):
			_ = send(hub.Frame{Type: hub.FrameError, Message: "Message cannot be empty"})
		case errors.Is(err, domain.ErrForbidden):
			_ = send(hub.Frame{Type: hub.FrameError, Message: "Only staff can send as admin"})
		case errors.Is(err, domain.ErrValidation):
			_ = send(hub.Frame{Type: hub.FrameError, Message: "Invalid sender type"})
		default:
			l.Error("ws_post_error", "error", err)
			_ = send(hub.Frame{Type: hub.FrameError, Message: "Could not save message"})
		}
	}

	sub.Close()
	wg.Wait()
	l.Info("ws_disconnected")
}
