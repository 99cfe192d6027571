package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPostingKeyTTL is how long an applied posting key is remembered. A
// replay inside the window is acknowledged without effect; after it the key
// is forgotten.
const DefaultPostingKeyTTL = 24 * time.Hour

// Store persists positions and the keys of recently applied postings. Load
// reports false for an unknown scenario.
type Store interface {
	Load(ctx context.Context, id string) (Position, bool, error)
	Save(ctx context.Context, pos Position) error
	// Applied reports whether key was applied to id within the retention
	// window.
	Applied(ctx context.Context, id, key string) (bool, error)
	// SaveApplied saves pos and records key as applied in one step.
	SaveApplied(ctx context.Context, pos Position, key string) error
}

func postingTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultPostingKeyTTL
	}
	return ttl
}

// MemoryStore keeps positions in process.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]Position
	applied   map[string]map[string]time.Time // scenario -> key -> expiry
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryStore creates an empty MemoryStore remembering posting keys for
// ttl; ttl falls back to DefaultPostingKeyTTL when zero.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		positions: make(map[string]Position),
		applied:   make(map[string]map[string]time.Time),
		ttl:       postingTTL(ttl),
		now:       time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[id]
	if !ok {
		return Position{}, false, nil
	}
	return pos.clone(), true, nil
}

func (s *MemoryStore) Save(_ context.Context, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[pos.ScenarioID] = pos.clone()
	return nil
}

func (s *MemoryStore) Applied(_ context.Context, id, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiry, ok := s.applied[id][key]
	return ok && s.now().Before(expiry), nil
}

func (s *MemoryStore) SaveApplied(_ context.Context, pos Position, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	keys := s.applied[pos.ScenarioID]
	if keys == nil {
		keys = make(map[string]time.Time)
		s.applied[pos.ScenarioID] = keys
	}
	// Expired keys are dropped on write so the map stays within the window.
	for k, expiry := range keys {
		if !now.Before(expiry) {
			delete(keys, k)
		}
	}
	keys[key] = now.Add(s.ttl)
	s.positions[pos.ScenarioID] = pos.clone()
	return nil
}

// RedisStore keeps positions as JSON strings under prefix+"position:"+id and
// each applied posting key as its own string with a TTL, so the position
// value does not grow with the number of postings.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store over client remembering posting keys for
// ttl; ttl falls back to DefaultPostingKeyTTL when zero.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: postingTTL(ttl)}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "position:" + id
}

func (s *RedisStore) postingKey(id, key string) string {
	return s.prefix + "posting:" + id + ":" + key
}

func (s *RedisStore) Load(ctx context.Context, id string) (Position, bool, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, err
	}
	var pos Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return Position{}, false, err
	}
	return pos, true, nil
}

func (s *RedisStore) Save(ctx context.Context, pos Position) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(pos.ScenarioID), raw, 0).Err()
}

func (s *RedisStore) Applied(ctx context.Context, id, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.postingKey(id, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) SaveApplied(ctx context.Context, pos Position, key string) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(pos.ScenarioID), raw, 0)
		pipe.Set(ctx, s.postingKey(pos.ScenarioID, key), pos.Version, s.ttl)
		return nil
	})
	return err
}
