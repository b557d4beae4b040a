package models

import "time"

const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

type ChatRoom struct {
	ID        uint          `gorm:"primaryKey"                                        json:"id"`
	OwnerKind string        `gorm:"size:16;not null;uniqueIndex:idx_chat_rooms_owner" json:"-"`
	OwnerKey  string        `gorm:"size:64;not null;uniqueIndex:idx_chat_rooms_owner" json:"-"`
	Active    bool          `gorm:"column:is_active;not null;index"                   json:"is_active"`
	Messages  []ChatMessage `gorm:"foreignKey:RoomID"                                 json:"messages"`
	CreatedAt time.Time     `                                                         json:"created_at"`
	UpdatedAt time.Time     `gorm:"index"                                             json:"updated_at"`
}

type ChatMessage struct {
	ID         uint      `gorm:"primaryKey"                        json:"id"`
	RoomID     uint      `gorm:"not null;index"                    json:"room_id"`
	SenderType string    `gorm:"size:10;not null"                  json:"sender_type"`
	SenderID   *uint     `gorm:"index"                             json:"sender_id"`
	Sender     *User     `gorm:"constraint:OnDelete:SET NULL"      json:"-"`
	Body       string    `gorm:"column:message;type:text;not null" json:"message"`
	IsRead     bool      `gorm:"not null"                          json:"is_read"`
	CreatedAt  time.Time `gorm:"index"                             json:"created_at"`
}

// SenderName is the sender's display name, or "Guest" for anonymous senders.
func (m *ChatMessage) SenderName() string {
	if m.Sender != nil {
		if n := m.Sender.DisplayName(); n != "" {
			return n
		}
	}
	return "Guest"
}
