package contact

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is the append-only activity log of contact mutations.
type Event struct {
	ID          uint64          `gorm:"primaryKey" json:"id"`
	ContactID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"contact_id"`
	UserID      uint64          `gorm:"index;not null" json:"user_id"`
	Action      Action          `gorm:"type:text;not null" json:"action"`
	ContactName string          `gorm:"type:text;not null;default:''" json:"contact_name"`
	Details     string          `gorm:"type:text;not null;default:''" json:"details,omitempty"`
	Payload     json.RawMessage `gorm:"type:jsonb;not null;default:'{}'::jsonb" json:"payload"`
	CreatedAt   time.Time       `gorm:"not null;default:now()" json:"timestamp"`
}

func (Event) TableName() string { return "contact_events" }

func createdDetails(c Contact) string {
	switch tags := c.Tags.Strings(); len(tags) {
	case 0:
		return "Contact added"
	case 1:
		return fmt.Sprintf("Contact added with %s tag", tags[0])
	default:
		return fmt.Sprintf("Contact added with %s tags", strings.Join(tags, ", "))
	}
}

func updatedDetails(before, after Contact) string {
	var changed []string
	if before.Name != after.Name {
		changed = append(changed, "name")
	}
	if before.Email != after.Email {
		changed = append(changed, "email")
	}
	if before.Phone != after.Phone {
		changed = append(changed, "phone")
	}
	if before.Company != after.Company {
		changed = append(changed, "company")
	}
	if before.Notes != after.Notes {
		changed = append(changed, "notes")
	}
	if before.Tags != after.Tags {
		changed = append(changed, "tags")
	}
	if len(changed) == 0 {
		return "No changes"
	}
	return "Updated " + strings.Join(changed, ", ")
}
