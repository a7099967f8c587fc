package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contacthub/internal/auth"
	"contacthub/internal/contact"
	"contacthub/internal/role"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLookup struct {
	calls atomic.Int32
	role  string
}

// RoleOf honours ctx the way a database driver does.
func (l *countingLookup) RoleOf(ctx context.Context, userID uint64) (string, error) {
	l.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return l.role, nil
}

type listStore struct {
	lists atomic.Int32
	mu    sync.Mutex
	err   error
	rows  []contact.Contact
}

func (s *listStore) List(ctx context.Context, ownerID uint64) ([]contact.Contact, error) {
	s.lists.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.err
}

func (s *listStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *listStore) Insert(ctx context.Context, ownerID uint64, in contact.Input) (contact.Contact, error) {
	return contact.Contact{ID: uuid.New(), OwnerID: ownerID, Name: in.Name, Email: in.Email}, nil
}

func (s *listStore) Update(ctx context.Context, ownerID uint64, id uuid.UUID, in contact.Input) (contact.Contact, error) {
	return contact.Contact{}, contact.ErrNotFound
}

func (s *listStore) Delete(ctx context.Context, ownerID uint64, id uuid.UUID) error { return nil }

var ann = auth.Identity{UserID: 10, Email: "ann@example.com"}

func TestStartResolvesOnce(t *testing.T) {
	look := &countingLookup{role: "admin"}
	store := &listStore{rows: []contact.Contact{{ID: uuid.New(), OwnerID: 10, Name: "x"}}}
	m := NewManager(&role.Resolver{Lookup: look}, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Start(context.Background(), ann)
			assert.NoError(t, err)
			assert.True(t, s.CanEdit())
		}()
	}
	wg.Wait()

	s, err := m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, s.Role())
	assert.Len(t, s.Contacts().Snapshot(), 1)
	assert.EqualValues(t, 1, look.calls.Load())
	assert.EqualValues(t, 1, store.lists.Load())
}

func TestEndInvalidatesRole(t *testing.T) {
	look := &countingLookup{role: "viewer"}
	m := NewManager(&role.Resolver{Lookup: look}, &listStore{}, nil)

	s, err := m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.False(t, s.CanEdit())

	m.End(ann.UserID)
	assert.Nil(t, m.Get(ann.UserID))
	assert.Nil(t, s.Contacts().Identity())

	look.role = "admin"
	s, err = m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.True(t, s.CanEdit())
	assert.EqualValues(t, 2, look.calls.Load())
}

func TestStartFailedLoadIsNotCached(t *testing.T) {
	store := &listStore{err: errors.New("timeout"), rows: []contact.Contact{{ID: uuid.New(), OwnerID: 10, Name: "x"}}}
	m := NewManager(&role.Resolver{Lookup: &countingLookup{role: "admin"}}, store, nil)

	s, err := m.Start(context.Background(), ann)
	require.Error(t, err)
	require.NotNil(t, s)
	assert.Empty(t, s.Contacts().Snapshot())
	assert.Nil(t, m.Get(ann.UserID))

	// every request keeps reporting the failure until a load succeeds
	_, err = m.Start(context.Background(), ann)
	require.Error(t, err)

	store.setErr(nil)
	s2, err := m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.NotSame(t, s, s2)
	assert.Len(t, s2.Contacts().Snapshot(), 1)
	assert.Same(t, s2, m.Get(ann.UserID))
}

func TestStartSurvivesCancelledRequest(t *testing.T) {
	look := &countingLookup{role: "admin"}
	store := &listStore{rows: []contact.Contact{{ID: uuid.New(), OwnerID: 10, Name: "x"}}}
	m := NewManager(&role.Resolver{Lookup: look}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := m.Start(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, s.Role())
	assert.Len(t, s.Contacts().Snapshot(), 1)

	s2, err := m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.Same(t, s, s2)
	assert.True(t, s2.CanEdit())
}

type flakyLookup struct {
	fail atomic.Bool
}

func (l *flakyLookup) RoleOf(ctx context.Context, userID uint64) (string, error) {
	if l.fail.Load() {
		return "", errors.New("connection reset")
	}
	return "admin", nil
}

func TestStartRoleFailureIsNotCached(t *testing.T) {
	look := &flakyLookup{}
	look.fail.Store(true)
	m := NewManager(&role.Resolver{Lookup: look}, &listStore{}, nil)

	s, err := m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.False(t, s.CanEdit())
	assert.Nil(t, m.Get(ann.UserID))

	look.fail.Store(false)
	s, err = m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.True(t, s.CanEdit())
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedManager(look role.Lookup) (*Manager, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(&role.Resolver{Lookup: look}, &listStore{}, nil)
	m.now = c.Now
	m.IdleTimeout = 30 * time.Minute
	m.MaxAge = 12 * time.Hour
	return m, c
}

func TestIdleSessionIsEvicted(t *testing.T) {
	look := &countingLookup{role: "viewer"}
	m, c := newClockedManager(look)

	s, err := m.Start(context.Background(), ann)
	require.NoError(t, err)

	c.Advance(20 * time.Minute)
	assert.Same(t, s, m.Get(ann.UserID))
	c.Advance(20 * time.Minute)
	assert.Same(t, s, m.Get(ann.UserID), "a request resets the idle timer")

	c.Advance(31 * time.Minute)
	assert.Nil(t, m.Get(ann.UserID))
	assert.Nil(t, s.Contacts().Identity())
	assert.Zero(t, m.Len())

	// the role is resolved again for the next session
	look.role = "admin"
	s, err = m.Start(context.Background(), ann)
	require.NoError(t, err)
	assert.True(t, s.CanEdit())
	assert.EqualValues(t, 2, look.calls.Load())
}

func TestSessionEndsWithToken(t *testing.T) {
	m, c := newClockedManager(&countingLookup{role: "admin"})
	m.IdleTimeout = 0

	id := ann
	id.ExpiresAt = c.Now().Add(time.Hour)
	s, err := m.Start(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id.ExpiresAt, s.ExpiresAt)

	c.Advance(59 * time.Minute)
	assert.NotNil(t, m.Get(ann.UserID))
	c.Advance(time.Minute)
	assert.Nil(t, m.Get(ann.UserID))
}

func TestSessionMaxAge(t *testing.T) {
	m, c := newClockedManager(&countingLookup{role: "admin"})
	m.IdleTimeout = 0

	id := ann
	id.ExpiresAt = c.Now().Add(7 * 24 * time.Hour)
	s, err := m.Start(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, c.Now().Add(12*time.Hour), s.ExpiresAt)

	c.Advance(12 * time.Hour)
	assert.Nil(t, m.Get(ann.UserID))
}

func TestSweep(t *testing.T) {
	m, c := newClockedManager(&countingLookup{role: "viewer"})

	for i := uint64(1); i <= 3; i++ {
		_, err := m.Start(context.Background(), auth.Identity{UserID: i})
		require.NoError(t, err)
	}
	c.Advance(20 * time.Minute)
	require.NotNil(t, m.Get(2))

	c.Advance(15 * time.Minute)
	assert.Equal(t, 2, m.Sweep())
	assert.Equal(t, 1, m.Len())
	assert.NotNil(t, m.Get(2))
	assert.Zero(t, m.Sweep())
}
