package session

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"contacthub/internal/auth"
	"contacthub/internal/contact"
	"contacthub/internal/logging"
	"contacthub/internal/role"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIdleTimeout  = 30 * time.Minute
	DefaultMaxAge       = 12 * time.Hour
	DefaultStartTimeout = 15 * time.Second
)

// Session is the in-memory state of one signed-in user: the role resolved at
// start and the contact mirror. It lives until sign-out, expiry or idle
// eviction.
type Session struct {
	Identity  auth.Identity
	StartedAt time.Time
	ExpiresAt time.Time

	role     role.Role
	contacts *contact.Repository
	lastSeen atomic.Int64
}

func (s *Session) Role() role.Role               { return s.role }
func (s *Session) CanEdit() bool                 { return s.role.CanEdit() }
func (s *Session) Contacts() *contact.Repository { return s.contacts }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

type Manager struct {
	roles *role.Resolver
	store contact.Store
	log   *zap.Logger

	IdleTimeout  time.Duration
	MaxAge       time.Duration
	StartTimeout time.Duration

	now      func() time.Time
	group    singleflight.Group
	mu       sync.RWMutex
	sessions map[uint64]*Session
}

func NewManager(roles *role.Resolver, store contact.Store, log *zap.Logger) *Manager {
	return &Manager{
		roles:        roles,
		store:        store,
		log:          logging.OrNop(log),
		IdleTimeout:  DefaultIdleTimeout,
		MaxAge:       DefaultMaxAge,
		StartTimeout: DefaultStartTimeout,
		now:          time.Now,
		sessions:     map[uint64]*Session{},
	}
}

type started struct {
	s   *Session
	err error
}

// Start returns the session of id, starting it when there is none. Starting
// resolves the role and loads contacts once, detached from the cancellation
// of ctx. A session is kept only when both succeed; otherwise it serves the
// waiting callers and the next request starts over. The load error is
// returned to every caller that waited on that start.
func (m *Manager) Start(ctx context.Context, id auth.Identity) (*Session, error) {
	if s := m.Get(id.UserID); s != nil {
		return s, nil
	}

	v, _, _ := m.group.Do(strconv.FormatUint(id.UserID, 10), func() (any, error) {
		if s := m.Get(id.UserID); s != nil {
			return started{s: s}, nil
		}
		return m.start(context.WithoutCancel(ctx), id), nil
	})

	res := v.(started)
	return res.s, res.err
}

func (m *Manager) start(ctx context.Context, id auth.Identity) started {
	if m.StartTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.StartTimeout)
		defer cancel()
	}

	now := m.now()
	s := &Session{
		Identity:  id,
		StartedAt: now,
		contacts:  contact.NewRepository(m.store, m.log),
	}
	if m.MaxAge > 0 {
		s.ExpiresAt = now.Add(m.MaxAge)
	}
	if !id.ExpiresAt.IsZero() && (s.ExpiresAt.IsZero() || id.ExpiresAt.Before(s.ExpiresAt)) {
		s.ExpiresAt = id.ExpiresAt
	}
	s.touch(now)

	r, roleErr := m.roles.Role(ctx, &id)
	s.role = r
	err := s.contacts.Load(ctx, &id)

	if roleErr != nil || err != nil {
		m.log.Warn("session start incomplete, not cached",
			zap.Uint64("user_id", id.UserID),
			zap.NamedError("role_error", roleErr),
			zap.NamedError("load_error", err))
		return started{s: s, err: err}
	}

	m.mu.Lock()
	m.sessions[id.UserID] = s
	m.mu.Unlock()

	m.log.Info("session started",
		zap.Uint64("user_id", id.UserID),
		zap.String("role", string(s.role)),
		zap.Int("contacts", len(s.contacts.Snapshot())),
		zap.Time("expires_at", s.ExpiresAt))
	return started{s: s}
}

// Get returns the live session of userID, or nil. An expired or idle session
// is evicted on the way.
func (m *Manager) Get(userID uint64) *Session {
	m.mu.RLock()
	s := m.sessions[userID]
	m.mu.RUnlock()
	if s == nil {
		return nil
	}

	now := m.now()
	if m.expired(s, now) {
		m.evict(userID, s, "expired")
		return nil
	}
	s.touch(now)
	return s
}

// End signs userID out, dropping the cached role and contacts.
func (m *Manager) End(userID uint64) {
	m.mu.RLock()
	s := m.sessions[userID]
	m.mu.RUnlock()
	if s != nil {
		m.evict(userID, s, "signed out")
	}
}

// Sweep evicts every expired or idle session and returns how many it dropped.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.RLock()
	var stale []*Session
	for _, s := range m.sessions {
		if m.expired(s, now) {
			stale = append(stale, s)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, s := range stale {
		if m.evict(s.Identity.UserID, s, "expired") {
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Debug("swept sessions", zap.Int("evicted", n))
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return true
	}
	return m.IdleTimeout > 0 && now.Sub(time.Unix(0, s.lastSeen.Load())) > m.IdleTimeout
}

// evict drops s if it is still the session of userID.
func (m *Manager) evict(userID uint64, s *Session, reason string) bool {
	m.mu.Lock()
	cur, ok := m.sessions[userID]
	if ok && cur == s {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok || cur != s {
		return false
	}

	_ = s.contacts.Load(context.Background(), nil)
	m.log.Info("session ended", zap.Uint64("user_id", userID), zap.String("reason", reason))
	return true
}
