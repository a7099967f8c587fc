package role

import (
	"context"
	"errors"

	"contacthub/internal/auth"
	"contacthub/internal/logging"

	"go.uber.org/zap"
)

// ErrNoRole means no role row exists for the user.
var ErrNoRole = errors.New("no role assigned")

type Lookup interface {
	RoleOf(ctx context.Context, userID uint64) (string, error)
}

// Resolver derives the role of a session. It fails closed: a missing row or a
// failed lookup both yield Viewer.
type Resolver struct {
	Lookup Lookup
	Log    *zap.Logger
}

func (r *Resolver) Resolve(ctx context.Context, id *auth.Identity) Role {
	role, _ := r.Role(ctx, id)
	return role
}

// Role is Resolve that also returns the lookup failure behind a Viewer
// answer. A missing row is not a failure.
func (r *Resolver) Role(ctx context.Context, id *auth.Identity) (Role, error) {
	if id == nil {
		return Viewer, nil
	}
	log := logging.OrNop(r.Log)

	raw, err := r.Lookup.RoleOf(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, ErrNoRole) {
			log.Info("no role row, defaulting to viewer", zap.Uint64("user_id", id.UserID))
			return Viewer, nil
		}
		log.Warn("role lookup failed, defaulting to viewer", zap.Uint64("user_id", id.UserID), zap.Error(err))
		return Viewer, err
	}

	role := Parse(raw)
	if string(role) != raw {
		log.Warn("unknown role value", zap.Uint64("user_id", id.UserID), zap.String("role", raw))
	}
	return role, nil
}
