package role

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormLookup struct {
	DB *gorm.DB
}

func (l *GormLookup) RoleOf(ctx context.Context, userID uint64) (string, error) {
	var ur UserRole
	err := l.DB.WithContext(ctx).
		Select("role").
		Where("user_id = ?", userID).
		Take(&ur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoRole
	}
	if err != nil {
		return "", err
	}
	return ur.Role, nil
}

// Assign sets the role of userID, replacing any previous one.
func (l *GormLookup) Assign(ctx context.Context, userID uint64, r Role) error {
	return l.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(&UserRole{UserID: userID, Role: string(r)}).Error
}
