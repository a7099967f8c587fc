package webhook

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotConfigured = errors.New("no webhook configured")

// Setting is the outbound webhook of one user.
type Setting struct {
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Setting) TableName() string { return "webhook_settings" }

type Settings struct {
	DB *gorm.DB
}

func (s *Settings) Get(ctx context.Context, userID uint64) (Setting, error) {
	var st Setting
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Setting{}, ErrNotConfigured
	}
	return st, err
}

// Put stores url for userID. An empty url removes the webhook.
func (s *Settings) Put(ctx context.Context, userID uint64, url string) error {
	db := s.DB.WithContext(ctx)
	if url == "" {
		return db.Where("user_id = ?", userID).Delete(&Setting{}).Error
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "updated_at"}),
	}).Create(&Setting{UserID: userID, URL: url, UpdatedAt: time.Now()}).Error
}
