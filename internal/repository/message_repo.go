package repository

import (
	"stafflink/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(m *models.Message) error {
	return r.db.Create(m).Error
}

// ListByConversation returns the message backlog in delivery order: timestamp
// first, id as the tie-breaker.
func (r *MessageRepository) ListByConversation(conversationID uint, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// MarkConversationRead flips every unread message in the conversation that the
// reader did not send. A single UPDATE keeps it atomic and idempotent.
func (r *MessageRepository) MarkConversationRead(conversationID, readerID uint) error {
	return r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND is_read = ? AND (sender_id IS NULL OR sender_id <> ?)", conversationID, false, readerID).
		Update("is_read", true).Error
}

// UnreadCountForUser counts unread messages sent by others across every
// conversation the user participates in. Recomputed on demand, never cached.
func (r *MessageRepository) UnreadCountForUser(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.is_read = ? AND (messages.sender_id IS NULL OR messages.sender_id <> ?)", userID, false, userID).
		Count(&count).Error
	return int(count), err
}
