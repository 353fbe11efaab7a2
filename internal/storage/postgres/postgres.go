// postgres предоставляет реализацию storage.Storage на базе PostgreSQL.
// Схема — migrations/0001_cart_kv.sql.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pribylovaa/car-marketplace/internal/storage"
)

type Storage struct {
	db *pgxpool.Pool
}

// New создает и инициализирует пул соединений к PostgreSQL.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage/postgres/New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage/postgres/Get"

	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value::text FROM cart_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

// Set делает upsert. Колонка value — JSONB, поэтому невалидный JSON отвергнет сама БД.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage/postgres/Set"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	q := `
	INSERT INTO cart_kv (key, value, updated_at)
	VALUES ($1, $2::jsonb, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := s.db.Exec(ctx, q, key, string(value)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage/postgres/Delete"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM cart_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Storage = (*Storage)(nil)
