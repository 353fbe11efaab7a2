// storage описывает key-value контракт, на котором держится корзина.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound — ключ отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrEmptyKey — пустой ключ.
	ErrEmptyKey = errors.New("empty key")
)

// Storage — минимальное персистентное key-value хранилище.
// Значение — непрозрачный набор байт (корзина хранит там JSON-массив).
type Storage interface {
	// Get возвращает значение по ключу. Если ключа нет — ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set перезаписывает значение по ключу целиком.
	Set(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error

	// Close закрывает соединения/ресурсы хранилища.
	Close() error
}
