package comments

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/car-marketplace/internal/models"
)

// View — «экран» ветки: в каждый момент показывает одно объявление.
//
// Каждое Open получает номер поколения и отменяет незавершённую загрузку
// предыдущего. Ответ применяется, только если его поколение всё ещё текущее,
// иначе он отбрасывается с ErrStale.
type View struct {
	svc *Service

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	loading bool
	thread  *Thread
}

// NewView создаёт пустое представление.
func (s *Service) NewView() *View {
	return &View{svc: s}
}

// Open переключает представление на listingID и загружает ветку.
func (v *View) Open(ctx context.Context, listingID int64, mode models.FetchMode) (*Thread, error) {
	const op = "comments/View.Open"

	fctx, cancel := context.WithCancel(ctx)

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	v.cancel = cancel
	v.loading = true
	v.mu.Unlock()

	list, err := v.svc.ListComments(fctx, listingID, mode)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		cancel()
		return nil, fmt.Errorf("%s: listing %d: %w", op, listingID, ErrStale)
	}

	cancel()
	v.cancel = nil
	v.loading = false

	if err != nil {
		return nil, err
	}

	v.thread = v.svc.NewThread(listingID, mode, list)

	return v.thread, nil
}

// Close бросает незавершённую загрузку (не дожидаясь её) и очищает представление.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	v.loading = false
	v.thread = nil
}

// Loading — есть незавершённая загрузка.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.loading
}

// Current — текущая ветка или nil.
func (v *View) Current() *Thread {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.thread
}
