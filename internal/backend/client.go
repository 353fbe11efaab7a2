// backend — HTTP/JSON клиент внешнего бэкенда объявлений.
//
// Каждая операция ходит ровно в один закреплённый эндпойнт; 404 — настоящий NotFound,
// альтернативные маршруты не перебираются.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/metrics"
	"github.com/pribylovaa/car-marketplace/internal/models"
)

// maxBodyBytes — сколько тела ответа читаем (в т.ч. для диагностики ошибок).
const maxBodyBytes = 1 << 20

// Логические имена маршрутов (метки логов и метрик).
const (
	routeList   = "comments.list"
	routeTree   = "comments.tree"
	routeCreate = "comments.create"
	routeUpdate = "comments.update_text"
	routeDelete = "comments.delete"
	routeReply  = "comments.reply"
)

// Options — параметры клиента.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Logger == nil -> request-scoped логгер из контекста.
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Transport == nil -> http.DefaultTransport.
	Transport http.RoundTripper
}

// Client — клиент эндпойнтов /api/publicaciones/{id}/comentarios.
type Client struct {
	base *url.URL
	http *http.Client
}

// New создаёт клиент с цепочкой транспорта metadata -> timeout -> logging -> metrics.
func New(opts Options) (*Client, error) {
	const op = "backend/New"

	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid base url %q", op, opts.BaseURL)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		base: u,
		http: &http.Client{Transport: chain(base, opts)},
	}, nil
}

// ListComments — плоский список комментариев объявления (публично).
func (c *Client) ListComments(ctx context.Context, listingID int64) ([]models.Comment, error) {
	return c.list(ctx, routeList, listingID, c.commentsPath(listingID))
}

// ListCommentTree — дерево комментариев с вложенными ответами (публично).
func (c *Client) ListCommentTree(ctx context.Context, listingID int64) ([]models.Comment, error) {
	return c.list(ctx, routeTree, listingID, c.commentsPath(listingID)+"/jerarquicos")
}

func (c *Client) list(ctx context.Context, route string, listingID int64, path string) ([]models.Comment, error) {
	status, body, err := c.do(ctx, route, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNoContent {
		return []models.Comment{}, nil
	}

	var dtos []commentDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, malformed(route, status, body, err)
	}

	out := make([]models.Comment, 0, len(dtos))
	for _, d := range dtos {
		if err := d.checkShape(); err != nil {
			return nil, malformed(route, status, body, err)
		}
		out = append(out, d.toModel(listingID))
	}

	return out, nil
}

// CreateComment создаёт корневой комментарий от имени userID.
func (c *Client) CreateComment(ctx context.Context, token string, listingID, userID int64, text string) (*models.Comment, error) {
	req := createCommentRequest{UserID: userID, Text: text}

	return c.create(ctx, routeCreate, token, listingID, c.commentsPath(listingID), req)
}

// ReplyToComment создаёт ответ на parentID.
// Ответ уже сохранён при любом 2xx, поэтому пустое тело (или null) — nil без ошибки.
func (c *Client) ReplyToComment(ctx context.Context, token string, listingID, parentID, userID int64, text string) (*models.Comment, error) {
	req := createCommentRequest{UserID: userID, Text: text}
	path := c.commentPath(listingID, parentID) + "/respuestas"

	status, body, err := c.do(ctx, routeReply, http.MethodPost, path, token, req)
	if err != nil {
		return nil, err
	}

	if noContent(body) {
		return nil, nil
	}

	return decodeComment(routeReply, status, body, listingID)
}

func (c *Client) create(ctx context.Context, route, token string, listingID int64, path string, req createCommentRequest) (*models.Comment, error) {
	status, body, err := c.do(ctx, route, http.MethodPost, path, token, req)
	if err != nil {
		return nil, err
	}

	return decodeComment(route, status, body, listingID)
}

// UpdateCommentText меняет текст комментария.
// Пустое тело 2xx (или null) допустимо: тогда возвращается nil, и вызывающий патчит текст сам.
func (c *Client) UpdateCommentText(ctx context.Context, token string, listingID, commentID int64, text string) (*models.Comment, error) {
	path := c.commentPath(listingID, commentID) + "/texto"

	status, body, err := c.do(ctx, routeUpdate, http.MethodPut, path, token, updateTextRequest{Text: text})
	if err != nil {
		return nil, err
	}

	if noContent(body) {
		return nil, nil
	}

	return decodeComment(routeUpdate, status, body, listingID)
}

// DeleteComment удаляет комментарий.
func (c *Client) DeleteComment(ctx context.Context, token string, listingID, commentID int64) error {
	_, _, err := c.do(ctx, routeDelete, http.MethodDelete, c.commentPath(listingID, commentID), token, nil)
	return err
}

func (c *Client) commentsPath(listingID int64) string {
	return "/api/publicaciones/" + strconv.FormatInt(listingID, 10) + "/comentarios"
}

func (c *Client) commentPath(listingID, commentID int64) string {
	return c.commentsPath(listingID) + "/" + strconv.FormatInt(commentID, 10)
}

// do выполняет запрос и возвращает статус и тело успешного (2xx) ответа.
// Неуспешный статус -> *Error с Kind по статусу и сырым телом.
func (c *Client) do(ctx context.Context, route, method, path, token string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("backend %s: encode request: %w", route, err)
		}
		reqBody = bytes.NewReader(b)
	}

	u := c.base.JoinPath(path)

	req, err := http.NewRequestWithContext(withRoute(ctx, route), method, u.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("backend %s: build request: %w", route, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Отмена/дедлайн вызывающего — не сетевой сбой, отдаём как есть.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}

		return 0, nil, &Error{Kind: ErrNetwork, Route: route, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}

		return 0, nil, &Error{Kind: ErrNetwork, Route: route, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, &Error{
			Kind:   kindFromStatus(resp.StatusCode),
			Route:  route,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return resp.StatusCode, body, nil
}

// noContent — успешный ответ без сущности: пустое тело или JSON null.
func noContent(body []byte) bool {
	b := bytes.TrimSpace(body)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func decodeComment(route string, status int, body []byte, listingID int64) (*models.Comment, error) {
	var d commentDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, malformed(route, status, body, err)
	}

	if err := d.checkShape(); err != nil {
		return nil, malformed(route, status, body, err)
	}

	m := d.toModel(listingID)
	return &m, nil
}

func malformed(route string, status int, body []byte, cause error) error {
	return &Error{
		Kind:   ErrMalformedResponse,
		Route:  route,
		Status: status,
		Body:   string(body),
		Err:    cause,
	}
}

// IsTransient сообщает, имеет ли смысл предложить пользователю «повторить».
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}
