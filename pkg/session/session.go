// Package session tracks the single command run that may be in flight at a
// time. A Manager hands out Session handles; starting a new run while one is
// active either fails with ErrBusy or, through Takeover, cancels the old run.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrBusy is returned by Begin while another session is active.
	ErrBusy = errors.New("a command is already running")

	// ErrTakenOver is the cancellation cause of a session replaced by Takeover.
	ErrTakenOver = errors.New("session taken over by a newer command")
)

// Manager owns the active session slot.
type Manager struct {
	mu     sync.Mutex
	active *Session
	logger *slog.Logger
}

// NewManager returns a Manager with no active session.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{logger: logger}
}

// Session is one command run, from submission to end of stream or error.
type Session struct {
	ID uuid.UUID

	ctx    context.Context
	cancel context.CancelCauseFunc
	mgr    *Manager
	once   sync.Once
}

// Begin starts a session derived from ctx. It fails with ErrBusy when a
// session is already active.
func (m *Manager) Begin(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrBusy
	}
	return m.start(ctx), nil
}

// Takeover cancels the active session, if any, and starts a new one.
func (m *Manager) Takeover(ctx context.Context) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.active; prev != nil {
		m.logger.Debug("cancelling running session", "session", prev.ID)
		prev.cancel(ErrTakenOver)
	}
	return m.start(ctx)
}

// Busy reports whether a session is active.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Active returns the active session or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// start must be called with m.mu held.
func (m *Manager) start(ctx context.Context) *Session {
	sctx, cancel := context.WithCancelCause(ctx)
	s := &Session{
		ID:     uuid.New(),
		ctx:    sctx,
		cancel: cancel,
		mgr:    m,
	}
	m.active = s
	m.logger.Debug("session started", "session", s.ID)
	return s
}

// Context is cancelled when the session is done or taken over.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Cancel aborts the session's in-flight work. The slot stays held until Done.
func (s *Session) Cancel() {
	s.cancel(context.Canceled)
}

// Done ends the session and frees the manager slot. Only the first call has
// an effect, and a session that was taken over never frees its successor's
// slot.
func (s *Session) Done(err error) {
	s.once.Do(func() {
		s.cancel(context.Canceled)

		s.mgr.mu.Lock()
		defer s.mgr.mu.Unlock()
		if s.mgr.active == s {
			s.mgr.active = nil
		}

		if err != nil {
			s.mgr.logger.Debug("session failed", "session", s.ID, "err", err)
			return
		}
		s.mgr.logger.Debug("session finished", "session", s.ID)
	})
}
