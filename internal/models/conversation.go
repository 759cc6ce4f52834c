package models

import (
	"time"
)

// Conversation is a set of participants plus its message history. A non-group
// conversation holds exactly two participants and must not be duplicated for
// the same pair; callers go through ConversationRepository.FindDirect first.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IsGroup   bool      `gorm:"default:false" json:"is_group"`
	CreatedAt time.Time `json:"created_at"`

	Participants []User `gorm:"many2many:conversation_participants" json:"participants,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}
