package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

const cartKeyPrefix = "cart:"

// RedisStore persists cart snapshots in Redis under cart:<owner>. Carts are
// durable across reloads but carry no TTL-free guarantee beyond the
// configured retention.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Load(ctx context.Context, owner string) ([]models.CartLine, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+owner).Bytes()
	if err == redis.Nil {
		return []models.CartLine{}, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *RedisStore) Save(ctx context.Context, owner string, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKeyPrefix+owner, data, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, owner string) error {
	return s.client.Del(ctx, cartKeyPrefix+owner).Err()
}

// MemoryStore is a map-backed Store for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]models.CartLine
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]models.CartLine)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Load(_ context.Context, owner string) ([]models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartLine(nil), s.carts[owner]...), nil
}

func (s *MemoryStore) Save(_ context.Context, owner string, lines []models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[owner] = append([]models.CartLine(nil), lines...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, owner)
	return nil
}
