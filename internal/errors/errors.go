// errors стандартизирует ответы об ошибках HTTP-слоя шлюза.
// На вход он принимает ошибку доменного слоя (cart, comments, session),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code и безопасное message;
//   - details — только там, где это отладочная возможность (сырое тело битого ответа бэкенда).
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/car-marketplace/internal/backend"
	"github.com/pribylovaa/car-marketplace/internal/cart"
	"github.com/pribylovaa/car-marketplace/internal/comments"
	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// maxDetails — сколько сырого тела отдаём фронту в details.
const maxDetails = 4 << 10

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id (для трассировки).
// Details — диагностическая информация (сырое тело битого ответа бэкенда).
// Retryable — фронт может предложить «повторить» (сеть или 5xx бэкенда).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и ответ для фронта.
//
// Поведение:
//   - err == nil - программная ошибка вызова: 500/internal;
//   - отказ корзины -> 400/409 с причиной отказа в message;
//   - ошибки комментариев -> 400/401/403/404/502 по таксономии;
//   - отмена/дедлайн контекста -> 499/504;
//   - сетевой сбой и 5xx бэкенда помечаются retryable;
//   - всё прочее -> 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)

	resp := ErrorResponse{Error: APIError{Code: code, Message: msg, Retryable: backend.IsTransient(err)}}

	var rejected *cart.RejectedError
	if errors.As(err, &rejected) && rejected.Reason != "" {
		resp.Error.Message = rejected.Reason
	}

	if code == "malformed_response" {
		var be *backend.Error
		if errors.As(err, &be) {
			resp.Error.Details = truncate(be.Body, maxDetails)
		}
	}

	return status, resp
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из контекста или заголовка.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	rid := requestid.From(r.Context())
	if rid == "" {
		rid = r.Header.Get(requestid.Header)
	}
	resp.Error.RequestID = rid

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг доменной ошибки в HTTP/FE-код/сообщение:
//   - ValidationError / invalid item -> 400 validation_error
//   - already in cart -> 409 already_in_cart
//   - AuthRequired -> 401 auth_required
//   - SessionExpired, просроченный токен -> 401 session_expired
//   - битый токен -> 401 invalid_token
//   - Forbidden -> 403 forbidden
//   - NotFound -> 404 not_found
//   - NetworkError -> 502 network_error
//   - MalformedResponse -> 502 malformed_response
//   - UnknownServerError -> 502 upstream_error
//   - Stale -> 409 stale
//   - Canceled -> 499, DeadlineExceeded -> 504
//   - прочее -> 500/internal
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, cart.ErrAlreadyInCart):
		return http.StatusConflict, "already_in_cart", "already in cart"
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, comments.ErrValidation):
		return http.StatusBadRequest, "validation_error", "validation error"
	case errors.Is(err, comments.ErrAuthRequired), errors.Is(err, session.ErrNoToken):
		return http.StatusUnauthorized, "auth_required", "authentication required"
	case errors.Is(err, comments.ErrSessionExpired), errors.Is(err, session.ErrTokenExpired):
		return http.StatusUnauthorized, "session_expired", "session expired, please log in again"
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", "invalid token"
	case errors.Is(err, comments.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, comments.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, comments.ErrNetwork):
		return http.StatusBadGateway, "network_error", "backend unreachable, please retry"
	case errors.Is(err, comments.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response", "malformed backend response"
	case errors.Is(err, comments.ErrUnknownServer):
		return http.StatusBadGateway, "upstream_error", "backend error, please retry"
	case errors.Is(err, comments.ErrStale):
		return http.StatusConflict, "stale", "stale response"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
