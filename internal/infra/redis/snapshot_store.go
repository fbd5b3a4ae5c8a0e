package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
)

// SnapshotStore keeps the per-session snapshot in a single Redis key, JSON
// encoded and TTL bounded so abandoned runs age out. Load treats a missing or
// unparsable value as "no snapshot": the session starts fresh rather than
// erroring.
type SnapshotStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *goredis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("discarding corrupt snapshot for %s: %v", key, err)
		return nil, nil
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl).Err()
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *SnapshotStore) key(sessionKey string) string {
	return "quiz:snapshot:" + sessionKey
}
