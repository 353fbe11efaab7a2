package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/storage"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func mustNew(t *testing.T) *Storage {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	s, err := New(ctx, filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStorage_SetGetDelete(t *testing.T) {
	s := mustNew(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "cart:1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart:1", []byte(`[{"listingId":1}]`)))
	got, err := s.Get(ctx, "cart:1")
	require.NoError(t, err)
	require.Equal(t, `[{"listingId":1}]`, string(got))

	// перезапись целиком
	require.NoError(t, s.Set(ctx, "cart:1", []byte(`[]`)))
	got, err = s.Get(ctx, "cart:1")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "cart:1"))
	_, err = s.Get(ctx, "cart:1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// удаление отсутствующего ключа — не ошибка
	require.NoError(t, s.Delete(ctx, "cart:1"))
}

func TestStorage_EmptyKey(t *testing.T) {
	s := mustNew(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "")
	require.ErrorIs(t, err, storage.ErrEmptyKey)
	require.ErrorIs(t, s.Set(ctx, "", []byte("x")), storage.ErrEmptyKey)
	require.ErrorIs(t, s.Delete(ctx, ""), storage.ErrEmptyKey)
}

// Данные переживают переоткрытие файла (аналог перезагрузки страницы).
func TestStorage_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cart.db")

	s1, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "k", []byte("v")))
	require.NoError(t, s1.Close())

	s2, err := New(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	got, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))
	require.Equal(t, path, s2.Path())
}
