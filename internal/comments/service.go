// comments — комментарии к объявлениям поверх внешнего бэкенда: выдача плоским
// списком и деревом, создание, правка, удаление и ответы, локальный кэш ветки,
// защита от устаревших ответов и контракт отрисовки дерева.
//
// HTTP-шлюз не хранит состояния между запросами и пользуется только Service и
// RenderForest. Thread, View, Editor и ThreadSubmitter — API для долгоживущего
// клиента внутри процесса (экран объявления): кэш ветки, отбрасывание устаревших
// загрузок и машина состояний редактирования. В шлюзе они не вызываются.
package comments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/car-marketplace/internal/models"
	"github.com/pribylovaa/car-marketplace/internal/pkg/log"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

// Backend — эндпойнты комментариев внешнего бэкенда (реализует *backend.Client).
type Backend interface {
	ListComments(ctx context.Context, listingID int64) ([]models.Comment, error)
	ListCommentTree(ctx context.Context, listingID int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, token string, listingID, userID int64, text string) (*models.Comment, error)
	UpdateCommentText(ctx context.Context, token string, listingID, commentID int64, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, token string, listingID, commentID int64) error
	ReplyToComment(ctx context.Context, token string, listingID, parentID, userID int64, text string) (*models.Comment, error)
}

// Options — лимиты сервиса. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	MaxDepth     int
	MaxTextLen   int
	FetchTimeout time.Duration
}

const (
	defaultMaxDepth     = 3
	defaultFetchTimeout = 10 * time.Second
)

// Service — операции над комментариями объявления. Автоматических повторов нет.
type Service struct {
	backend Backend
	opts    Options
	group   singleflight.Group
	now     func() time.Time
}

// New создаёт сервис поверх клиента бэкенда.
func New(b Backend, opts Options) *Service {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.MaxTextLen <= 0 || opts.MaxTextLen > models.MaxCommentLen {
		opts.MaxTextLen = models.MaxCommentLen
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}

	return &Service{backend: b, opts: opts, now: time.Now}
}

// MaxDepth — глубина, начиная с которой ответ в дереве уже не предлагается.
func (s *Service) MaxDepth() int { return s.opts.MaxDepth }

// ListComments — комментарии объявления в режиме mode (публично, без токена).
//
// Одинаковые одновременные запросы (объявление + режим) схлопываются в один вызов
// бэкенда. Общий вызов живёт на отвязанном контексте с таймаутом FetchTimeout;
// вызывающий, чей ctx завершился, получает ошибку контекста сразу, не дожидаясь ответа.
//
// Ошибки: ErrValidation, ErrNetwork, ErrMalformedResponse, ErrNotFound, ErrUnknownServer,
// а также context.Canceled / context.DeadlineExceeded.
func (s *Service) ListComments(ctx context.Context, listingID int64, mode models.FetchMode) ([]models.Comment, error) {
	const op = "comments/ListComments"

	lg := log.From(ctx).With("op", op, "listing_id", listingID, "mode", string(mode))

	if listingID <= 0 {
		lg.Warn("invalid argument: listing_id")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}
	if mode != models.Flat && mode != models.Hierarchical {
		lg.Warn("invalid argument: mode")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	return s.fetch(ctx, lg, op, listingID, mode, false)
}

// Reload — то же, что ListComments, но всегда новым вызовом бэкенда: к запросу,
// начатому раньше, он не присоединяется. Нужен после мутации, чтобы не получить
// состояние до неё.
func (s *Service) Reload(ctx context.Context, listingID int64, mode models.FetchMode) ([]models.Comment, error) {
	const op = "comments/Reload"

	lg := log.From(ctx).With("op", op, "listing_id", listingID, "mode", string(mode))

	if listingID <= 0 || (mode != models.Flat && mode != models.Hierarchical) {
		lg.Warn("invalid argument")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	return s.fetch(ctx, lg, op, listingID, mode, true)
}

func (s *Service) fetch(ctx context.Context, lg *slog.Logger, op string, listingID int64, mode models.FetchMode, fresh bool) ([]models.Comment, error) {
	key := strconv.FormatInt(listingID, 10) + ":" + string(mode)

	if fresh {
		// Текущий общий вызов доработает для своих ожидающих, новые идут в наш.
		s.group.Forget(key)
	}

	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
		defer cancel()

		if mode == models.Hierarchical {
			return s.backend.ListCommentTree(fctx, listingID)
		}
		return s.backend.ListComments(fctx, listingID)
	})

	select {
	case <-ctx.Done():
		lg.Debug("caller left before fetch completed")
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			lg.Warn("fetch failed", "err", res.Err)
			return nil, fmt.Errorf("%s: %w", op, mapBackendErr(res.Err))
		}

		list, _ := res.Val.([]models.Comment)
		// Результат общий для всех ожидавших: каждому своя копия.
		return cloneComments(list), nil
	}
}

// CreateComment создаёт корневой комментарий от имени пользователя сессии.
//
// Порядок проверок: ErrAuthRequired, ErrSessionExpired, ErrValidation.
// Текст проверяется до любого сетевого вызова.
func (s *Service) CreateComment(ctx context.Context, sess session.Session, listingID int64, text string) (*models.Comment, error) {
	const op = "comments/CreateComment"

	lg := log.From(ctx).With("op", op, "listing_id", listingID, "user_id", sess.UserID)

	text, err := s.checkWrite(sess, text, listingID)
	if err != nil {
		lg.Warn("rejected", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.backend.CreateComment(ctx, sess.Token, listingID, sess.UserID, text)
	if err != nil {
		lg.Warn("backend call failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, mapBackendErr(err))
	}

	fillAuthor(c, sess)
	lg.Info("comment created", "comment_id", c.ID)

	return c, nil
}

// UpdateCommentText меняет текст комментария. 403 -> ErrForbidden.
//
// Если бэкенд ответил пустым телом, возвращается (nil, nil): подтверждён только
// новый текст, остальное вызывающий берёт из своего кэша.
func (s *Service) UpdateCommentText(ctx context.Context, sess session.Session, listingID, commentID int64, text string) (*models.Comment, error) {
	const op = "comments/UpdateCommentText"

	lg := log.From(ctx).With("op", op, "listing_id", listingID, "comment_id", commentID, "user_id", sess.UserID)

	text, err := s.checkWrite(sess, text, listingID, commentID)
	if err != nil {
		lg.Warn("rejected", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.backend.UpdateCommentText(ctx, sess.Token, listingID, commentID, text)
	if err != nil {
		lg.Warn("backend call failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, mapBackendErr(err))
	}

	lg.Info("comment updated")

	return c, nil
}

// DeleteComment удаляет комментарий.
func (s *Service) DeleteComment(ctx context.Context, sess session.Session, listingID, commentID int64) error {
	const op = "comments/DeleteComment"

	lg := log.From(ctx).With("op", op, "listing_id", listingID, "comment_id", commentID, "user_id", sess.UserID)

	if err := s.checkSession(sess); err != nil {
		lg.Warn("rejected", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if listingID <= 0 || commentID <= 0 {
		lg.Warn("invalid argument: id")
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	if err := s.backend.DeleteComment(ctx, sess.Token, listingID, commentID); err != nil {
		lg.Warn("backend call failed", "err", err)
		return fmt.Errorf("%s: %w", op, mapBackendErr(err))
	}

	lg.Info("comment deleted", "moderation", sess.IsAdmin())

	return nil
}

// ReplyToComment отвечает на комментарий parentID.
// Бэкенд может подтвердить ответ без тела: тогда (nil, nil), ответ уже сохранён.
func (s *Service) ReplyToComment(ctx context.Context, sess session.Session, listingID, parentID int64, text string) (*models.Comment, error) {
	const op = "comments/ReplyToComment"

	lg := log.From(ctx).With("op", op, "listing_id", listingID, "parent_id", parentID, "user_id", sess.UserID)

	text, err := s.checkWrite(sess, text, listingID, parentID)
	if err != nil {
		lg.Warn("rejected", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.backend.ReplyToComment(ctx, sess.Token, listingID, parentID, sess.UserID, text)
	if err != nil {
		lg.Warn("backend call failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, mapBackendErr(err))
	}

	if c == nil {
		lg.Info("reply created")
		return nil, nil
	}

	fillAuthor(c, sess)
	lg.Info("reply created", "comment_id", c.ID)

	return c, nil
}

// ValidateText — локальная проверка текста: не пустой после TrimSpace и не длиннее лимита.
// Возвращает нормализованный текст.
func (s *Service) ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > s.opts.MaxTextLen {
		return "", fmt.Errorf("%w: text is %d characters, limit is %d", ErrValidation, n, s.opts.MaxTextLen)
	}

	return text, nil
}

func (s *Service) checkSession(sess session.Session) error {
	if !sess.Authenticated() {
		return ErrAuthRequired
	}
	if sess.Expired(s.now()) {
		return ErrSessionExpired
	}

	return nil
}

func (s *Service) checkWrite(sess session.Session, text string, ids ...int64) (string, error) {
	if err := s.checkSession(sess); err != nil {
		return "", err
	}

	for _, id := range ids {
		if id <= 0 {
			return "", fmt.Errorf("%w: id must be positive", ErrValidation)
		}
	}

	return s.ValidateText(text)
}

// fillAuthor дописывает автора, если бэкенд не вернул его в ответе на создание.
func fillAuthor(c *models.Comment, sess session.Session) {
	if c == nil {
		return
	}

	me := sess.Author()
	if c.Author.UserID == 0 {
		c.Author.UserID = me.UserID
	}
	if c.Author.DisplayName == "" && c.Author.UserID == me.UserID {
		c.Author.DisplayName = me.DisplayName
	}
}

func cloneComments(in []models.Comment) []models.Comment {
	out := make([]models.Comment, len(in))
	for i, c := range in {
		out[i] = c
		if c.Replies != nil {
			out[i].Replies = cloneComments(c.Replies)
		}
	}

	return out
}
