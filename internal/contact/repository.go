package contact

import (
	"context"
	"sync"

	"contacthub/internal/auth"
	"contacthub/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository mirrors the contacts of one identity in memory.
//
// The list only changes after the store confirms a mutation, so a failed call
// never leaves the mirror disagreeing with the store. The lock is never held
// across a store call.
type Repository struct {
	store Store
	log   *zap.Logger

	mu       sync.Mutex
	identity *auth.Identity
	contacts []Contact
	loading  bool
	gen      uint64
}

func NewRepository(store Store, log *zap.Logger) *Repository {
	return &Repository{store: store, log: logging.OrNop(log)}
}

// Load replaces the mirror with every contact owned by id, newest first.
// A nil id clears the mirror. Responses of loads superseded by a later Load
// are discarded.
func (r *Repository) Load(ctx context.Context, id *auth.Identity) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.contacts = nil
	if id == nil {
		r.identity = nil
		r.loading = false
		r.mu.Unlock()
		return nil
	}
	owner := *id
	r.identity = &owner
	r.loading = true
	r.mu.Unlock()

	rows, err := r.store.List(ctx, owner.UserID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.log.Debug("discarding superseded contact load", zap.Uint64("user_id", owner.UserID))
		return nil
	}
	r.loading = false
	if err != nil {
		r.log.Error("fetch contacts", zap.Uint64("user_id", owner.UserID), zap.Error(err))
		return &RemoteError{Op: OpLoad, Err: err}
	}
	r.contacts = rows
	return nil
}

// Refresh reloads the current identity.
func (r *Repository) Refresh(ctx context.Context) error {
	return r.Load(ctx, r.Identity())
}

func (r *Repository) Create(ctx context.Context, in Input) (Contact, error) {
	owner, gen, ok := r.owner()
	if !ok {
		return Contact{}, ErrNoSession
	}
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return Contact{}, err
	}

	c, err := r.store.Insert(ctx, owner.UserID, in)
	if err != nil {
		r.log.Error("add contact", zap.Uint64("user_id", owner.UserID), zap.Error(err))
		return Contact{}, &RemoteError{Op: OpCreate, Err: err}
	}

	r.apply(gen, func() {
		for _, existing := range r.contacts {
			if existing.ID == c.ID {
				return
			}
		}
		r.contacts = append([]Contact{c}, r.contacts...)
	})
	return c, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (Contact, error) {
	owner, gen, ok := r.owner()
	if !ok {
		return Contact{}, ErrNoSession
	}
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return Contact{}, err
	}

	c, err := r.store.Update(ctx, owner.UserID, id, in)
	if err != nil {
		r.log.Error("update contact", zap.Uint64("user_id", owner.UserID), zap.Stringer("contact_id", id), zap.Error(err))
		return Contact{}, &RemoteError{Op: OpUpdate, Err: err}
	}

	r.apply(gen, func() {
		for i := range r.contacts {
			if r.contacts[i].ID == id {
				r.contacts[i] = c
			}
		}
	})
	return c, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	owner, gen, ok := r.owner()
	if !ok {
		return ErrNoSession
	}

	if err := r.store.Delete(ctx, owner.UserID, id); err != nil {
		r.log.Error("delete contact", zap.Uint64("user_id", owner.UserID), zap.Stringer("contact_id", id), zap.Error(err))
		return &RemoteError{Op: OpDelete, Err: err}
	}

	r.apply(gen, func() {
		kept := make([]Contact, 0, len(r.contacts))
		for _, c := range r.contacts {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		r.contacts = kept
	})
	return nil
}

// Snapshot returns a copy of the mirror, newest first.
func (r *Repository) Snapshot() []Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Contact, len(r.contacts))
	copy(out, r.contacts)
	return out
}

func (r *Repository) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

func (r *Repository) Identity() *auth.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identity == nil {
		return nil
	}
	id := *r.identity
	return &id
}

func (r *Repository) owner() (auth.Identity, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identity == nil {
		return auth.Identity{}, 0, false
	}
	return *r.identity, r.gen, true
}

// apply runs fn under the lock unless a Load has replaced the mirror since gen.
// A reload that raced the mutation is authoritative.
func (r *Repository) apply(gen uint64, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	fn()
}
