// Package session keeps form sessions between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"careerflow/internal/application/wizard"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
	ErrConflict = errors.New("session changed since it was loaded")
	ErrClosed   = errors.New("session already closed")
)

// Store persists wizard state. AcquireSubmit/ReleaseSubmit guard a session
// against concurrent submissions from different requests or replicas.
//
// Save is a compare-and-set: it succeeds only while the stored session is open
// and still at st.Version, and it stores the state at st.Version+1. Close
// replaces the session with its finished state whatever the stored version.
type Store interface {
	Create(ctx context.Context, st wizard.State) error
	Load(ctx context.Context, id string) (wizard.State, error)
	Save(ctx context.Context, st wizard.State) error
	Close(ctx context.Context, st wizard.State) error
	Delete(ctx context.Context, id string) error
	AcquireSubmit(ctx context.Context, id string) (bool, error)
	ReleaseSubmit(ctx context.Context, id string) error
	IsSubmitting(ctx context.Context, id string) (bool, error)
}

type memoryEntry struct {
	state   wizard.State
	expires time.Time
}

// MemoryStore is a single-process Store. Sessions expire ttl after their last save.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	locks    map[string]struct{}
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]struct{}),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, st wizard.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(st.ID); ok {
		return ErrExists
	}
	s.put(st)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return wizard.State{}, ErrNotFound
	}
	return copyState(e.state), nil
}

func (s *MemoryStore) Save(_ context.Context, st wizard.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(st.ID)
	switch {
	case !ok:
		return ErrNotFound
	case e.state.Finished:
		return ErrClosed
	case e.state.Version != st.Version:
		return ErrConflict
	}
	st.Version++
	s.put(st)
	return nil
}

func (s *MemoryStore) Close(_ context.Context, st wizard.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(st.ID)
	if !ok {
		return ErrNotFound
	}
	st.Version = e.state.Version + 1
	st.Finished = true
	st.Data = nil
	s.put(st)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.locks, id)
	return nil
}

func (s *MemoryStore) AcquireSubmit(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locks[id]; held {
		return false, nil
	}
	s.locks[id] = struct{}{}
	return true, nil
}

func (s *MemoryStore) ReleaseSubmit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
	return nil
}

func (s *MemoryStore) IsSubmitting(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.locks[id]
	return held, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for id, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, id)
			delete(s.locks, id)
			n++
		}
	}
	return n
}

// Len is the number of stored sessions, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expires) {
		delete(s.sessions, id)
		delete(s.locks, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) put(st wizard.State) {
	s.sessions[st.ID] = memoryEntry{state: copyState(st), expires: s.now().Add(s.ttl)}
}

func copyState(st wizard.State) wizard.State {
	if st.Data != nil {
		st.Data = st.Data.Clone()
	}
	return st
}
