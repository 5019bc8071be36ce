package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portal_chat_service/internal/chat/domain"
)

// ReadStatusRepository definition read pointer persistence
// chat_read_statuses 是本服務自有的表, 由 AutoMigrate 建
type ReadStatusRepository interface {
	// Upsert 同 (user, room) 只留最新一筆
	Upsert(ctx context.Context, userID, roomSlug, messageID string) error
	// Find 找不到回 (nil, nil)
	Find(ctx context.Context, userID, roomSlug string) (*domain.ReadStatus, error)
	// AutoMigrate 啟動時建表
	AutoMigrate() error
}

type readStatusRepository struct {
	db *gorm.DB
}

// NewReadStatusRepository create a ReadStatusRepository
func NewReadStatusRepository(db *gorm.DB) ReadStatusRepository {
	return &readStatusRepository{db: db}
}

func (r *readStatusRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ReadStatus{})
}

func (r *readStatusRepository) Upsert(ctx context.Context, userID, roomSlug, messageID string) error {
	rs := domain.ReadStatus{
		UserID:            userID,
		RoomSlug:          roomSlug,
		LastReadMessageID: messageID,
		UpdatedAt:         time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "room_slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_message_id", "updated_at"}),
	}).Create(&rs).Error
}

func (r *readStatusRepository) Find(ctx context.Context, userID, roomSlug string) (*domain.ReadStatus, error) {
	var rs domain.ReadStatus
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND room_slug = ?", userID, roomSlug).
		First(&rs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rs, nil
}
