package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const (
	DefaultTTL           = time.Hour
	DefaultSweepInterval = time.Minute
)

// Observer receives session lifecycle signals, typically for metrics.
type Observer interface {
	SessionsActive(n int)
	SessionReclaimed(reason string)
}

type entry struct {
	// fence is held shared by every operation reading the session's chunks
	// and exclusively by deletion, so deletion waits for in-flight reads.
	fence sync.RWMutex

	mu         sync.Mutex
	session    domain.Session
	chunkCount int
	closed     bool
}

// Manager is the process-wide session registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	ttl           time.Duration
	sweepInterval time.Duration
	stores        []ports.SessionDropper
	observer      Observer
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithSweepInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.sweepInterval = interval
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(m *Manager) {
		m.observer = observer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager takes every store that keeps per-session data; deleting a
// session drops it from all of them.
func NewManager(stores []ports.SessionDropper, opts ...Option) *Manager {
	m := &Manager{
		sessions:      make(map[string]*entry),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		stores:        stores,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Create(_ context.Context, documentID string) domain.Session {
	now := m.now().UTC()
	e := &entry{session: domain.Session{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		CreatedAt:  now,
		LastAccess: now,
		Status:     domain.SessionActive,
	}}

	m.mu.Lock()
	m.sessions[e.session.ID] = e
	active := len(m.sessions)
	m.mu.Unlock()

	m.observeActive(active)
	return e.session
}

// Acquire pins a session for reading and refreshes its inactivity clock.
// The returned release func must be called exactly once.
func (m *Manager) Acquire(_ context.Context, sessionID string) (func(), error) {
	e := m.lookup(sessionID)
	if e == nil {
		return nil, notFound("acquire session", sessionID)
	}

	e.fence.RLock()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.fence.RUnlock()
		return nil, notFound("acquire session", sessionID)
	}
	e.session.LastAccess = m.now().UTC()
	e.mu.Unlock()

	var once sync.Once
	return func() { once.Do(e.fence.RUnlock) }, nil
}

func (m *Manager) SetChunkCount(sessionID string, n int) error {
	e := m.lookup(sessionID)
	if e == nil {
		return notFound("set chunk count", sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return notFound("set chunk count", sessionID)
	}
	e.chunkCount = n
	return nil
}

func (m *Manager) Stats(_ context.Context, sessionID string) (domain.SessionStats, error) {
	e := m.lookup(sessionID)
	if e == nil {
		return domain.SessionStats{}, notFound("session stats", sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.SessionStats{}, notFound("session stats", sessionID)
	}
	return e.statsLocked(), nil
}

func (m *Manager) List(_ context.Context) []domain.SessionStats {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	out := make([]domain.SessionStats, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			out = append(out, e.statsLocked())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete unregisters the session, waits for in-flight reads, then drops its
// chunks from every store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	e := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	active := len(m.sessions)
	m.mu.Unlock()

	if e == nil {
		return notFound("delete session", sessionID)
	}
	m.observeActive(active)

	e.fence.Lock()
	e.mu.Lock()
	e.closed = true
	e.session.Status = domain.SessionExpired
	e.mu.Unlock()
	e.fence.Unlock()

	if err := m.drop(ctx, sessionID); err != nil {
		return err
	}
	m.observeReclaimed("deleted")
	return nil
}

// Sweep reclaims sessions idle for longer than the TTL. Sessions with
// in-flight reads are skipped and retried on the next sweep.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var candidates []*entry
	for _, e := range m.sessions {
		e.mu.Lock()
		if e.session.LastAccess.Before(cutoff) {
			candidates = append(candidates, e)
		}
		e.mu.Unlock()
	}
	m.mu.Unlock()

	reclaimed := 0
	for _, e := range candidates {
		if !e.fence.TryLock() {
			continue
		}

		e.mu.Lock()
		stillIdle := e.session.LastAccess.Before(cutoff) && !e.closed
		if stillIdle {
			e.closed = true
			e.session.Status = domain.SessionExpired
		}
		id := e.session.ID
		e.mu.Unlock()

		if stillIdle {
			m.mu.Lock()
			if m.sessions[id] == e {
				delete(m.sessions, id)
			}
			active := len(m.sessions)
			m.mu.Unlock()
			m.observeActive(active)
		}
		e.fence.Unlock()

		if !stillIdle {
			continue
		}
		if err := m.drop(ctx, id); err != nil {
			m.logger.Error("session_reclaim_failed", "session_id", id, "error", err)
		}
		m.logger.Info("session_expired", "session_id", id)
		m.observeReclaimed("expired")
		reclaimed++
	}
	return reclaimed
}

// Run sweeps on an interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				m.logger.Info("session_sweep_completed", "reclaimed", n)
			}
		}
	}
}

// Close deletes every session, waiting for in-flight reads to finish.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.Delete(ctx, id); err != nil && !domain.IsKind(err, domain.ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) lookup(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

func (m *Manager) drop(ctx context.Context, sessionID string) error {
	var errs []error
	for _, store := range m.stores {
		if err := store.DropSession(ctx, sessionID); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("drop session %s: %w", sessionID, errors.Join(errs...))
	}
	return nil
}

func (m *Manager) observeActive(n int) {
	if m.observer != nil {
		m.observer.SessionsActive(n)
	}
}

func (m *Manager) observeReclaimed(reason string) {
	if m.observer != nil {
		m.observer.SessionReclaimed(reason)
	}
}

func (e *entry) statsLocked() domain.SessionStats {
	return domain.SessionStats{
		SessionID:  e.session.ID,
		DocumentID: e.session.DocumentID,
		ChunkCount: e.chunkCount,
		CreatedAt:  e.session.CreatedAt,
		LastAccess: e.session.LastAccess,
		Status:     e.session.Status,
	}
}

func notFound(operation, sessionID string) error {
	return domain.WrapError(domain.ErrSessionNotFound, operation, fmt.Errorf("session %q", sessionID))
}
