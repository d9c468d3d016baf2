package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"storefront/admin/internal/table"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "storeadmin:view:"

type redisViewStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

// NewRedisViewStore keeps one JSON document per table under storeadmin:view:<table>
func NewRedisViewStore(redisClient *redis.Client) table.ViewStore {
	return &redisViewStore{
		redisClient: redisClient,
		keyPrefix:   viewKeyPrefix,
	}
}

func (s *redisViewStore) LoadView(ctx context.Context, name string) (*table.ViewState, error) {
	key := s.keyPrefix + name
	val, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Nothing saved yet
		}
		return nil, fmt.Errorf("failed to get view state for table %s: %w", name, err)
	}

	var view table.ViewState
	if err := json.Unmarshal(val, &view); err != nil {
		return nil, fmt.Errorf("failed to parse view state for table %s: %w", name, err)
	}
	return &view, nil
}

func (s *redisViewStore) SaveView(ctx context.Context, name string, view table.ViewState) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to serialize view state for table %s: %w", name, err)
	}

	key := s.keyPrefix + name
	if err := s.redisClient.Set(ctx, key, data, 0).Err(); err != nil { // No expiration
		return fmt.Errorf("failed to set view state for table %s: %w", name, err)
	}
	return nil
}

type memoryViewStore struct {
	mu    sync.Mutex
	views map[string][]byte
}

// NewMemoryViewStore is used when Redis is disabled; views live as long as the process
func NewMemoryViewStore() table.ViewStore {
	return &memoryViewStore{views: make(map[string][]byte)}
}

func (s *memoryViewStore) LoadView(_ context.Context, name string) (*table.ViewState, error) {
	s.mu.Lock()
	data, ok := s.views[name]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var view table.ViewState
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to parse view state for table %s: %w", name, err)
	}
	return &view, nil
}

func (s *memoryViewStore) SaveView(_ context.Context, name string, view table.ViewState) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to serialize view state for table %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[name] = data
	return nil
}
