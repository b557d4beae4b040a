package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type ChatService struct {
	Repo        *repo.GormRepo
	Broadcaster Broadcaster
}

// Room returns the caller's support room, creating it on first use.
func (s *ChatService) Room(ctx context.Context, caller identity.Caller) (*transport.RoomView, error) {
	room, err := s.ownRoom(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.roomView(ctx, room, false)
}

func (s *ChatService) ownRoom(ctx context.Context, caller identity.Caller) (*models.ChatRoom, error) {
	if caller.Identity.IsZero() {
		return nil, fmt.Errorf("%w: no session found", domain.ErrValidation)
	}
	room, err := s.Repo.GetOrCreateRoom(ctx, caller.Identity.OwnerKind(), caller.Identity.OwnerKey())
	if err != nil {
		return nil, fmt.Errorf("chat room: %w", err)
	}
	return room, nil
}

// SendUserMessage posts into the caller's own room as the customer side.
func (s *ChatService) SendUserMessage(ctx context.Context, caller identity.Caller, text string) (*transport.MessageView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyMessage
	}
	room, err := s.ownRoom(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.PostMessage(ctx, room.ID, models.SenderUser, senderRef(caller), text)
}

// SendStaffMessage posts into roomID as support staff.
func (s *ChatService) SendStaffMessage(ctx context.Context, caller identity.Caller, roomID uint, text string) (*transport.MessageView, error) {
	if !caller.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if _, err := s.Repo.FindRoom(ctx, roomID); err != nil {
		return nil, notFound(err, "chat room")
	}
	return s.PostMessage(ctx, roomID, models.SenderAdmin, senderRef(caller), text)
}

// PostAs posts into roomID on behalf of caller. Only staff may write as admin;
// an empty senderType means the customer side.
func (s *ChatService) PostAs(ctx context.Context, caller identity.Caller, roomID uint, senderType, text string) (*transport.MessageView, error) {
	if senderType == "" {
		senderType = models.SenderUser
	}
	if senderType == models.SenderAdmin && !caller.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can send as admin", domain.ErrForbidden)
	}
	return s.PostMessage(ctx, roomID, senderType, senderRef(caller), text)
}

// PostMessage persists a message then pushes it to live subscribers. A failed
// push is logged and does not undo the write.
func (s *ChatService) PostMessage(ctx context.Context, roomID uint, senderType string, senderID *uint, text string) (*transport.MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if senderType != models.SenderUser && senderType != models.SenderAdmin {
		return nil, domain.FieldError("sender_type", "Must be user or admin.")
	}

	m := &models.ChatMessage{RoomID: roomID, SenderType: senderType, SenderID: senderID, Body: text}
	if err := s.Repo.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	stored, err := s.Repo.GetMessage(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	v := MessageView(stored)

	if s.Broadcaster != nil {
		created := v.CreatedAt
		f := hub.Frame{
			Type:       hub.FrameMessage,
			ID:         v.ID,
			RoomID:     roomID,
			Message:    v.Message,
			SenderType: v.SenderType,
			SenderName: v.SenderName,
			CreatedAt:  &created,
		}
		if err := s.Broadcaster.Broadcast(ctx, roomID, f); err != nil {
			logging.FromContext(ctx).Warn("chat_broadcast_error", "room_id", roomID, "message_id", v.ID, "error", err)
		}
	}
	return &v, nil
}

// MarkUserRead flags the staff replies in the caller's room as read.
func (s *ChatService) MarkUserRead(ctx context.Context, caller identity.Caller) (int64, error) {
	room, err := s.ownRoom(ctx, caller)
	if err != nil {
		return 0, err
	}
	return s.MarkRead(ctx, room.ID, false)
}

// MarkRead flags messages written by the other side of the conversation as read.
func (s *ChatService) MarkRead(ctx context.Context, roomID uint, viewerStaff bool) (int64, error) {
	n, err := s.Repo.MarkRead(ctx, roomID, otherSide(viewerStaff))
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}

func (s *ChatService) ListActiveRooms(ctx context.Context) ([]transport.RoomView, error) {
	rooms, err := s.Repo.ListActiveRooms(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.Repo.UsersByIDs(ctx, roomUserIDs(rooms))
	if err != nil {
		return nil, err
	}
	out := make([]transport.RoomView, 0, len(rooms))
	for i := range rooms {
		out = append(out, buildRoomView(&rooms[i], roomUserName(&rooms[i], users), true))
	}
	return out, nil
}

// RoomForStaff marks the customer's messages read and returns the room.
func (s *ChatService) RoomForStaff(ctx context.Context, roomID uint) (*transport.RoomView, error) {
	if _, err := s.Repo.FindRoom(ctx, roomID); err != nil {
		return nil, notFound(err, "chat room")
	}
	if _, err := s.MarkRead(ctx, roomID, true); err != nil {
		return nil, err
	}
	room, err := s.Repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, notFound(err, "chat room")
	}
	return s.roomView(ctx, room, true)
}

func (s *ChatService) CloseRoom(ctx context.Context, roomID uint) error {
	ok, err := s.Repo.CloseRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("close room: %w", err)
	}
	if !ok {
		return &domain.NotFoundError{What: "chat room"}
	}
	logging.FromContext(ctx).Info("chat_room_closed", "room_id", roomID)
	return nil
}

// AuthorizeRoom checks that the caller may join roomID live.
func (s *ChatService) AuthorizeRoom(ctx context.Context, caller identity.Caller, roomID uint) (*models.ChatRoom, error) {
	room, err := s.Repo.FindRoom(ctx, roomID)
	if err != nil {
		return nil, notFound(err, "chat room")
	}
	if caller.IsStaff() || caller.Owns(room.OwnerKind, room.OwnerKey) {
		return room, nil
	}
	return nil, domain.ErrForbidden
}

func (s *ChatService) roomView(ctx context.Context, room *models.ChatRoom, viewerStaff bool) (*transport.RoomView, error) {
	users, err := s.Repo.UsersByIDs(ctx, roomUserIDs([]models.ChatRoom{*room}))
	if err != nil {
		return nil, err
	}
	v := buildRoomView(room, roomUserName(room, users), viewerStaff)
	return &v, nil
}

func otherSide(viewerStaff bool) string {
	if viewerStaff {
		return models.SenderUser
	}
	return models.SenderAdmin
}

func senderRef(caller identity.Caller) *uint {
	if id, ok := caller.Identity.UserID(); ok {
		return &id
	}
	return nil
}

func roomUserIDs(rooms []models.ChatRoom) []uint {
	var ids []uint
	for i := range rooms {
		if id, err := identity.FromOwner(rooms[i].OwnerKind, rooms[i].OwnerKey); err == nil {
			if uid, ok := id.UserID(); ok {
				ids = append(ids, uid)
			}
		}
	}
	return ids
}

func roomUserName(room *models.ChatRoom, users map[uint]models.User) string {
	id, err := identity.FromOwner(room.OwnerKind, room.OwnerKey)
	if err != nil {
		return "Guest"
	}
	if uid, ok := id.UserID(); ok {
		if u, found := users[uid]; found {
			return u.DisplayName()
		}
		return "Guest"
	}
	token, _ := id.SessionToken()
	if len(token) > 8 {
		token = token[:8]
	}
	return "Guest " + token
}

func buildRoomView(room *models.ChatRoom, userName string, viewerStaff bool) transport.RoomView {
	v := transport.RoomView{
		ID:        room.ID,
		UserName:  userName,
		IsActive:  room.Active,
		Messages:  make([]transport.MessageView, 0, len(room.Messages)),
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
	other := otherSide(viewerStaff)
	for i := range room.Messages {
		m := &room.Messages[i]
		if m.SenderType == other && !m.IsRead {
			v.UnreadCount++
		}
		v.Messages = append(v.Messages, MessageView(m))
	}
	if n := len(v.Messages); n > 0 {
		last := v.Messages[n-1]
		v.LastMessage = &last
	}
	return v
}

func MessageView(m *models.ChatMessage) transport.MessageView {
	return transport.MessageView{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderType: m.SenderType,
		SenderID:   m.SenderID,
		SenderName: m.SenderName(),
		Message:    m.Body,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}
