package contact

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the remote contact table. Every call is scoped to ownerID.
type Store interface {
	List(ctx context.Context, ownerID uint64) ([]Contact, error)
	Insert(ctx context.Context, ownerID uint64, in Input) (Contact, error)
	// Update returns ErrNotFound when no row matches id and ownerID.
	Update(ctx context.Context, ownerID uint64, id uuid.UUID, in Input) (Contact, error)
	Delete(ctx context.Context, ownerID uint64, id uuid.UUID) error
}

// GormStore keeps contacts in postgres and logs every mutation to contact_events
// in the same transaction.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) List(ctx context.Context, ownerID uint64) ([]Contact, error) {
	var rows []Contact
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) Insert(ctx context.Context, ownerID uint64, in Input) (Contact, error) {
	c := Contact{
		OwnerID: ownerID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Company: in.Company,
		Notes:   in.Notes,
		Tags:    in.Tags,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		return insertEvent(tx, c, ActionCreated, createdDetails(c))
	})
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *GormStore) Update(ctx context.Context, ownerID uint64, id uuid.UUID, in Input) (Contact, error) {
	var after Contact

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before Contact
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			First(&before).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		fields := in.fields()
		fields["updated_at"] = time.Now()

		res := tx.Model(&Contact{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&after).Error; err != nil {
			return err
		}
		return insertEvent(tx, after, ActionUpdated, updatedDetails(before, after))
	})
	if err != nil {
		return Contact{}, err
	}
	return after, nil
}

func (s *GormStore) Delete(ctx context.Context, ownerID uint64, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gone []Contact
		if err := tx.Clauses(clause.Returning{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Delete(&gone).Error; err != nil {
			return err
		}
		for _, c := range gone {
			if err := insertEvent(tx, c, ActionDeleted, "Contact removed"); err != nil {
				return err
			}
		}
		return nil
	})
}

// Events returns the newest activity entries for ownerID.
func (s *GormStore) Events(ctx context.Context, ownerID uint64, limit int) ([]Event, error) {
	var evs []Event
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id desc").
		Limit(limit).
		Find(&evs).Error
	return evs, err
}

func insertEvent(tx *gorm.DB, c Contact, action Action, details string) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	ev := Event{
		ContactID:   c.ID,
		UserID:      c.OwnerID,
		Action:      action,
		ContactName: c.Name,
		Details:     details,
		Payload:     json.RawMessage(b),
		CreatedAt:   time.Now(),
	}
	return tx.Create(&ev).Error
}
