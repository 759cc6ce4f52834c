package models

import (
	"time"

	"gorm.io/gorm"
)

// UserPresence is last-write-wins; only the presence tracker mutates it, on
// the first connect / last disconnect of a user's connections.
type UserPresence struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	IsOnline   bool           `gorm:"default:false;index" json:"is_online"`
	LastSeenAt time.Time      `gorm:"not null" json:"last_seen_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserPresence) TableName() string {
	return "user_presence"
}
