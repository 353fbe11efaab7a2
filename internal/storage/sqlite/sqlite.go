// sqlite — файловая реализация storage.Storage на modernc.org/sqlite (без cgo).
// Локальный аналог persistent storage браузера: переживает перезапуски процесса.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pribylovaa/car-marketplace/internal/storage"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type Storage struct {
	db   *sql.DB
	path string
}

// New открывает (или создаёт) файл базы и применяет схему.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage/sqlite/New"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Один писатель: sqlite не любит конкурентные транзакции записи.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply schema: %w", op, err)
	}

	return &Storage{db: db, path: path}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage/sqlite/Get"

	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cart_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage/sqlite/Set"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	q := `
	INSERT INTO cart_kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage/sqlite/Delete"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает соединение с файлом базы.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path возвращает путь к файлу базы.
func (s *Storage) Path() string {
	return s.path
}

var _ storage.Storage = (*Storage)(nil)
