package contact

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store that counts calls and can be told to fail.
type fakeStore struct {
	mu    sync.Mutex
	rows  []Contact
	calls int
	err   error
	now   time.Time

	// listHook runs inside List before it returns, outside the lock.
	listHook func()
}

func newFakeStore(rows ...Contact) *fakeStore {
	return &fakeStore{rows: rows, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeStore) List(ctx context.Context, ownerID uint64) ([]Contact, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	var out []Contact
	for _, c := range s.rows {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	hook := s.listHook
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *fakeStore) Insert(ctx context.Context, ownerID uint64, in Input) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Contact{}, s.err
	}
	s.now = s.now.Add(time.Minute)
	c := Contact{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Notes:     in.Notes,
		Tags:      in.Tags,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	s.rows = append([]Contact{c}, s.rows...)
	return c, nil
}

func (s *fakeStore) Update(ctx context.Context, ownerID uint64, id uuid.UUID, in Input) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Contact{}, s.err
	}
	for i, c := range s.rows {
		if c.ID == id && c.OwnerID == ownerID {
			s.now = s.now.Add(time.Minute)
			c.Name, c.Email, c.Phone, c.Company, c.Notes, c.Tags = in.Name, in.Email, in.Phone, in.Company, in.Notes, in.Tags
			c.UpdatedAt = s.now
			s.rows[i] = c
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (s *fakeStore) Delete(ctx context.Context, ownerID uint64, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	kept := s.rows[:0]
	for _, c := range s.rows {
		if !(c.ID == id && c.OwnerID == ownerID) {
			kept = append(kept, c)
		}
	}
	s.rows = kept
	return nil
}

func (s *fakeStore) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = errors.New(msg)
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
