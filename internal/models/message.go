package models

import (
	"time"
)

// Message is immutable after creation except for the IsRead flag, which flips
// when a recipient opens the conversation. SenderID is nullable so messages
// survive removal of the sending account.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_conv_msg" json:"conversation_id"`
	SenderID       *uint     `gorm:"index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"default:false;index:idx_conv_msg" json:"is_read"`
	Timestamp      time.Time `gorm:"autoCreateTime;index" json:"timestamp"`

	Conversation Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
	Sender       *User        `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
