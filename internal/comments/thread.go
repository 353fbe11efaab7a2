package comments

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/car-marketplace/internal/models"
	"github.com/pribylovaa/car-marketplace/internal/pkg/log"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

// Thread — закэшированная ветка комментариев одного объявления в одном режиме.
//
// Кэш меняется только после успешного ответа бэкенда. В плоском режиме новое
// добавляется в начало, правка заменяет запись по id, удаление убирает её; ответ
// перечитывает ветку. В режиме дерева любая мутация перечитывает дерево целиком.
type Thread struct {
	svc       *Service
	listingID int64
	mode      models.FetchMode

	mu       sync.RWMutex
	comments []models.Comment
	// stale — мутация прошла, а перечитать ветку не удалось.
	stale bool
}

// NewThread создаёт ветку с уже полученными комментариями.
func (s *Service) NewThread(listingID int64, mode models.FetchMode, list []models.Comment) *Thread {
	if list == nil {
		list = []models.Comment{}
	}

	return &Thread{svc: s, listingID: listingID, mode: mode, comments: list}
}

// OpenThread загружает ветку с бэкенда.
func (s *Service) OpenThread(ctx context.Context, listingID int64, mode models.FetchMode) (*Thread, error) {
	list, err := s.ListComments(ctx, listingID, mode)
	if err != nil {
		return nil, err
	}

	return s.NewThread(listingID, mode, list), nil
}

func (t *Thread) ListingID() int64        { return t.listingID }
func (t *Thread) Mode() models.FetchMode { return t.mode }

// Comments возвращает копию закэшированных комментариев.
func (t *Thread) Comments() []models.Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return cloneComments(t.comments)
}

// Len — число комментариев верхнего уровня.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.comments)
}

// Stale сообщает, что кэш может отставать от бэкенда (последнее перечитывание не удалось).
func (t *Thread) Stale() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.stale
}

// Render отрисовывает закэшированную ветку (см. RenderForest).
func (t *Thread) Render() []ThreadNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return RenderForest(t.comments, t.svc.opts.MaxDepth)
}

// Refresh перечитывает ветку с бэкенда. При ошибке кэш не меняется.
func (t *Thread) Refresh(ctx context.Context) error {
	list, err := t.svc.ListComments(ctx, t.listingID, t.mode)
	if err != nil {
		return err
	}

	t.replace(list)
	return nil
}

func (t *Thread) replace(list []models.Comment) {
	t.mu.Lock()
	t.comments = list
	t.stale = false
	t.mu.Unlock()
}

// Create создаёт комментарий и вносит его в кэш.
func (t *Thread) Create(ctx context.Context, sess session.Session, text string) (*models.Comment, error) {
	c, err := t.svc.CreateComment(ctx, sess, t.listingID, text)
	if err != nil {
		return nil, err
	}

	if t.mode == models.Hierarchical {
		t.refreshAfter(ctx, "create")
		return c, nil
	}

	t.mu.Lock()
	t.comments = append([]models.Comment{*c}, t.comments...)
	t.mu.Unlock()

	return c, nil
}

// Update меняет текст комментария; при ошибке кэш остаётся прежним.
func (t *Thread) Update(ctx context.Context, sess session.Session, commentID int64, text string) (*models.Comment, error) {
	c, err := t.svc.UpdateCommentText(ctx, sess, t.listingID, commentID, text)
	if err != nil {
		return nil, err
	}

	if t.mode == models.Hierarchical {
		t.refreshAfter(ctx, "update")
		return c, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := indexOf(t.comments, commentID)
	if i < 0 {
		return c, nil
	}

	if c == nil {
		// Бэкенд подтвердил без тела: патчим текст тем, что отправили.
		patched := t.comments[i]
		patched.Text, _ = t.svc.ValidateText(text)
		t.comments[i] = patched
		return &patched, nil
	}

	t.comments[i] = *c
	return c, nil
}

// Delete удаляет комментарий и убирает его из кэша.
func (t *Thread) Delete(ctx context.Context, sess session.Session, commentID int64) error {
	if err := t.svc.DeleteComment(ctx, sess, t.listingID, commentID); err != nil {
		return err
	}

	if t.mode == models.Hierarchical {
		t.refreshAfter(ctx, "delete")
		return nil
	}

	t.mu.Lock()
	if i := indexOf(t.comments, commentID); i >= 0 {
		t.comments = append(t.comments[:i:i], t.comments[i+1:]...)
	}
	t.mu.Unlock()

	return nil
}

// Reply отвечает на parentID и перечитывает ветку.
func (t *Thread) Reply(ctx context.Context, sess session.Session, parentID int64, text string) (*models.Comment, error) {
	c, err := t.svc.ReplyToComment(ctx, sess, t.listingID, parentID, text)
	if err != nil {
		return nil, err
	}

	t.refreshAfter(ctx, "reply")

	return c, nil
}

// refreshAfter перечитывает ветку после успешной мутации отдельным вызовом бэкенда.
// Неудача не отменяет мутацию: ветка помечается устаревшей, событие пишется в лог.
func (t *Thread) refreshAfter(ctx context.Context, what string) {
	const op = "comments/Thread.refreshAfter"

	list, err := t.svc.Reload(ctx, t.listingID, t.mode)
	if err != nil {
		log.From(ctx).Warn("refresh after mutation failed",
			"op", op,
			"mutation", what,
			"listing_id", t.listingID,
			"err", fmt.Errorf("%s: %w", op, err),
		)

		t.mu.Lock()
		t.stale = true
		t.mu.Unlock()
		return
	}

	t.replace(list)
}

func indexOf(list []models.Comment, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}

	return -1
}
