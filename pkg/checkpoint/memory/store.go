// Package memory implements checkpoint.Store in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/google/uuid"
)

// Store implements checkpoint.Store in memory, safe for concurrent use.
// Grounded on the teacher's pkg/adapters/memory.Store, adapted from a
// single-state-per-session map to a per-thread append-only slice.
type Store struct {
	mu   sync.RWMutex
	logs map[string][]checkpoint.Checkpoint
}

// New creates an empty in-memory checkpoint store.
func New() *Store {
	return &Store{logs: make(map[string][]checkpoint.Checkpoint)}
}

// Put implements checkpoint.Store.
func (s *Store) Put(_ context.Context, threadID string, cp checkpoint.Checkpoint) (string, error) {
	cp.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[threadID] = append(s.logs[threadID], cp)
	return cp.ID, nil
}

// Get implements checkpoint.Store.
func (s *Store) Get(_ context.Context, threadID, id string) (checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[threadID]
	if !ok || len(log) == 0 {
		return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
	}
	if id == "" {
		return log[len(log)-1], nil
	}
	for _, cp := range log {
		if cp.ID == id {
			return cp, nil
		}
	}
	return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
}

// List implements checkpoint.Store.
func (s *Store) List(_ context.Context, threadID string) ([]checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[threadID]
	out := make([]checkpoint.Checkpoint, len(log))
	copy(out, log)
	return out, nil
}

// Delete implements checkpoint.Store.
func (s *Store) Delete(_ context.Context, threadID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[threadID]
	if !ok {
		return nil
	}
	for i, cp := range log {
		if cp.ID == id {
			s.logs[threadID] = append(log[:i], log[i+1:]...)
			return nil
		}
	}
	return nil
}
