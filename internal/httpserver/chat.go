package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
)

type ChatHTTP struct {
	Svc *service.ChatService
}

func (h *ChatHTTP) UserRoom(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.user")

	room, err := h.Svc.Room(ctx, authmw.CallerFrom(c))
	if err != nil {
		return fail(c, l, "chat_room", err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *ChatHTTP) UserSend(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.user.send_message")

	var req transport.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "send_message", "invalid body", err)
	}
	m, err := h.Svc.SendUserMessage(ctx, authmw.CallerFrom(c), req.Message)
	if err != nil {
		return fail(c, l, "send_message", err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *ChatHTTP) UserMarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.user.mark_read")

	n, err := h.Svc.MarkUserRead(ctx, authmw.CallerFrom(c))
	if err != nil {
		return fail(c, l, "mark_read", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "marked": n})
}

func (h *ChatHTTP) AdminRooms(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.admin.list")

	rooms, err := h.Svc.ListActiveRooms(ctx)
	if err != nil {
		return fail(c, l, "list_rooms", err)
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *ChatHTTP) AdminRoom(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.admin.get")

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "get_room", "invalid id", err)
	}
	room, err := h.Svc.RoomForStaff(ctx, id)
	if err != nil {
		return fail(c, l, "get_room", err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *ChatHTTP) AdminSend(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.admin.send_message")

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "send_message", "invalid id", err)
	}
	var req transport.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "send_message", "invalid body", err)
	}
	m, err := h.Svc.SendStaffMessage(ctx, authmw.CallerFrom(c), id, req.Message)
	if err != nil {
		return fail(c, l, "send_message", err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *ChatHTTP) AdminClose(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat.admin.close_chat")

	id, err := parseID(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "close_chat", "invalid id", err)
	}
	if err := h.Svc.CloseRoom(ctx, id); err != nil {
		return fail(c, l, "close_chat", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
