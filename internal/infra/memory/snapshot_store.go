package memory

import (
	"context"
	"sync"

	"timed-quiz-service/internal/domain"
)

// SnapshotStore is an in-memory implementation of app.SnapshotStore, used
// when no Redis is configured and in tests.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]domain.Snapshot)}
}

func (s *SnapshotStore) Load(_ context.Context, key string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(_ context.Context, key string, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snap
	return nil
}

func (s *SnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}
