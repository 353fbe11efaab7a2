// redis — реализация storage.Storage поверх Redis (строковые ключи).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/storage"
	goredis "github.com/redis/go-redis/v9"
)

type Storage struct {
	rdb *goredis.Client
	ttl time.Duration
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// ttl > 0 — время жизни корзины после последней записи; 0 — без истечения.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Storage, error) {
	const op = "storage/redis/New"

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{rdb: rdb, ttl: ttl}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage/redis/Get"

	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// Set перезаписывает значение и продлевает TTL.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage/redis/Set"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	if err := s.rdb.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage/redis/Delete"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error { return s.rdb.Close() }

var _ storage.Storage = (*Storage)(nil)
