package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"         json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null"    json:"username"`
	PasswordHash string    `gorm:"not null"                         json:"-"`
	Role         string    `gorm:"size:16;not null"                 json:"role"`
	FirstName    string    `gorm:"size:150"                         json:"first_name"`
	LastName     string    `gorm:"size:150"                         json:"last_name"`
	Email        string    `gorm:"size:254"                         json:"email"`
	CreatedAt    time.Time `                                        json:"created_at"`
}

// DisplayName is the full name, or the username when no name is set.
func (u *User) DisplayName() string {
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	return u.Username
}
