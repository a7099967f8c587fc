package contact

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is one address book entry, owned by the user who created it.
type Contact struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uint64    `gorm:"index;not null" json:"owner_id"`

	Name    string `gorm:"type:text;not null" json:"name"`
	Email   string `gorm:"type:text;not null" json:"email"`
	Phone   string `gorm:"type:text;not null;default:''" json:"phone,omitempty"`
	Company string `gorm:"type:text;not null;default:''" json:"company,omitempty"`
	Notes   string `gorm:"type:text;not null;default:''" json:"notes,omitempty"`

	Tags TagSet `gorm:"type:text[];not null;default:'{}'" json:"tags"`

	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (c *Contact) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Input carries the editable fields of a contact.
type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
	Tags    TagSet `json:"tags"`
}

// fields is the column set written by insert and update.
func (in Input) fields() map[string]any {
	return map[string]any{
		"name":    in.Name,
		"email":   in.Email,
		"phone":   in.Phone,
		"company": in.Company,
		"notes":   in.Notes,
		"tags":    in.Tags,
	}
}
