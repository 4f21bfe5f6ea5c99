package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSaveInFlight is returned when a save is attempted while a previous
// one has not finished. Two payload versions must never be in flight
// for the same quotation.
var ErrSaveInFlight = errors.New("a save is already in progress for this quotation")

// Store is the persistence boundary. Persist receives the full payload
// (every line plus the complete recomputed breakdown), validates it
// independently, and returns the canonical state it stored.
type Store interface {
	Persist(ctx context.Context, payload SavePayload) (Snapshot, error)
}

// Session tracks one quotation being edited: the working snapshot, the
// last canonical snapshot confirmed by the store, and the dirty flag.
type Session struct {
	mu        sync.Mutex
	working   Snapshot
	canonical Snapshot
	dirty     bool
	saving    bool
}

// New starts a session from a canonical snapshot.
func New(canonical Snapshot) *Session {
	return &Session{
		working:   canonical.Clone(),
		canonical: canonical.Clone(),
	}
}

// Working returns a copy of the current working snapshot.
func (s *Session) Working() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Dirty reports whether unsaved edits exist.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Apply runs a reducer against the working snapshot. When the reducer
// rejects the edit the session is left exactly as it was, dirty flag
// included; on success the returned snapshot replaces the working one
// and the session becomes dirty.
func (s *Session) Apply(edit func(Snapshot) (Snapshot, error)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := edit(s.working.Clone())
	if err != nil {
		return Snapshot{}, err
	}
	s.working = next
	s.dirty = true
	return next.Clone(), nil
}

// Cancel discards all pending edits and restores the canonical snapshot.
func (s *Session) Cancel() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = s.canonical.Clone()
	s.dirty = false
	return s.working.Clone()
}

// Save builds the full outbound payload and hands it to the store. On
// success the store's canonical response replaces both snapshots and
// the dirty flag clears; on failure the working snapshot is kept so no
// user input is lost. A save while another is outstanding is rejected
// with ErrSaveInFlight.
func (s *Session) Save(ctx context.Context, store Store) (Snapshot, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return Snapshot{}, ErrSaveInFlight
	}
	s.saving = true
	payload := BuildSavePayload(s.working)
	s.mu.Unlock()

	canonical, err := store.Persist(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		return Snapshot{}, err
	}

	// The store is the tie-breaking authority: its response replaces
	// local state wholesale.
	s.canonical = canonical.Clone()
	s.working = canonical.Clone()
	s.dirty = false
	return canonical.Clone(), nil
}

// Manager owns the live sessions, one per quotation.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Acquire returns the session for a quotation, loading the canonical
// snapshot through load when no session exists yet.
func (m *Manager) Acquire(id uuid.UUID, load func() (Snapshot, error)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	canonical, err := load()
	if err != nil {
		return nil, err
	}
	sess := New(canonical)
	m.sessions[id] = sess
	return sess, nil
}

// Drop forgets a quotation's session, e.g. after deletion.
func (m *Manager) Drop(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
