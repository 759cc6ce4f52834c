package repository

import (
	"errors"
	"time"

	"stafflink/internal/models"

	"gorm.io/gorm"
)

type PresenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// SetOnline upserts the user's presence row. Last write wins.
func (r *PresenceRepository) SetOnline(userID uint, online bool) error {
	var p models.UserPresence
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = models.UserPresence{UserID: userID}
	} else if err != nil {
		return err
	}
	p.IsOnline = online
	p.LastSeenAt = time.Now()
	return r.db.Save(&p).Error
}

func (r *PresenceRepository) GetByUserID(userID uint) (*models.UserPresence, error) {
	var p models.UserPresence
	if err := r.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListOnlineUserIDs returns the ids of every user currently flagged online.
func (r *PresenceRepository) ListOnlineUserIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.UserPresence{}).
		Where("is_online = ?", true).
		Pluck("user_id", &ids).Error
	return ids, err
}
