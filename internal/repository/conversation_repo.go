package repository

import (
	"errors"

	"stafflink/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conv *models.Conversation) error {
	return r.db.Create(conv).Error
}

func (r *ConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.Preload("Participants").First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindDirect returns the existing non-group conversation containing both
// users, or nil when none exists. Callers must use this before creating a 1:1
// conversation so the same pair never gets two threads.
func (r *ConversationRepository) FindDirect(userA, userB uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.user_id = ?", userA).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.user_id = ?", userB).
		Where("conversations.is_group = ?", false).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) ListByUser(userID uint) ([]models.Conversation, error) {
	var list []models.Conversation
	err := r.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Order("conversations.created_at DESC").
		Find(&list).Error
	return list, err
}

// IsParticipant is on the hot path of every room connect and send.
func (r *ConversationRepository) IsParticipant(conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// OtherParticipantIDs returns the ids of every participant except excludeUserID.
func (r *ConversationRepository) OtherParticipantIDs(conversationID, excludeUserID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id <> ?", conversationID, excludeUserID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// Delete removes a conversation and cascades its messages and participant rows.
func (r *ConversationRepository) Delete(conversationID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", conversationID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Conversation{}, conversationID).Error
	})
}
