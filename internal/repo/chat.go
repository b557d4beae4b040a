package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopfront/internal/models"
)

func preloadMessages(db *gorm.DB) *gorm.DB {
	return db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("chat_messages.created_at ASC, chat_messages.id ASC")
	}).Preload("Messages.Sender")
}

func (r *GormRepo) GetOrCreateRoom(ctx context.Context, kind, key string) (*models.ChatRoom, error) {
	room := models.ChatRoom{OwnerKind: kind, OwnerKey: key, Active: true}
	res := r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&room)
	if res.Error != nil {
		return nil, res.Error
	}

	var got models.ChatRoom
	err := preloadMessages(r.DB.WithContext(ctx)).
		Where("owner_kind = ? AND owner_key = ?", kind, key).
		First(&got).Error
	if err != nil {
		return nil, err
	}
	return &got, nil
}

func (r *GormRepo) GetRoom(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := preloadMessages(r.DB.WithContext(ctx)).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *GormRepo) ListActiveRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := preloadMessages(r.DB.WithContext(ctx)).
		Where("is_active = ?", true).
		Order("updated_at DESC, id DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *GormRepo) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).
		Model(&models.ChatRoom{}).
		Where("id = ?", m.RoomID).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *GormRepo) GetMessage(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var m models.ChatMessage
	if err := r.DB.WithContext(ctx).Preload("Sender").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkRead flags unread messages written by senderType and returns how many changed.
func (r *GormRepo) MarkRead(ctx context.Context, roomID uint, senderType string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("room_id = ? AND sender_type = ? AND is_read = ?", roomID, senderType, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) CloseRoom(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.ChatRoom{}).
		Where("id = ?", id).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

// FindRoom loads the room header without its messages.
func (r *GormRepo) FindRoom(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.DB.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}
