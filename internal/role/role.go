package role

import "strings"

type Role string

const (
	Admin  Role = "admin"
	Viewer Role = "viewer"
)

// Parse maps a stored role name to a Role. Anything unrecognised is Viewer.
func Parse(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Admin:
		return Admin
	default:
		return Viewer
	}
}

func (r Role) CanEdit() bool { return r == Admin }

// UserRole is the side table the role is read from.
type UserRole struct {
	UserID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Role   string `gorm:"type:text;not null;default:'viewer'"`
}

func (UserRole) TableName() string { return "user_roles" }
