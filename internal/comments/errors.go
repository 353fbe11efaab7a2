package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/car-marketplace/internal/backend"
)

var (
	// ErrAuthRequired — операция требует входа, а сессии нет.
	ErrAuthRequired = errors.New("auth required")
	// ErrValidation — локальная проверка не пройдена (пустой или слишком длинный текст, неверный id).
	ErrValidation = errors.New("validation error")
	// ErrSessionExpired — бэкенд ответил 401 либо токен истёк локально.
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden — 403, в т.ч. «комментарий не ваш».
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — объявление или комментарий не найдены (404).
	ErrNotFound = errors.New("not found")
	// ErrNetwork — транспортный сбой при обращении к бэкенду.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse — ответ бэкенда не разобрался; сырое тело в *backend.Error.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnknownServer — 5xx или иной неуспешный статус.
	ErrUnknownServer = errors.New("unknown server error")
	// ErrStale — ответ пришёл для представления, которое уже показывает другое объявление.
	ErrStale = errors.New("stale response")
)

// mapBackendErr переводит ошибку клиента бэкенда в ошибку сервиса.
// Исходная ошибка остаётся в цепочке: errors.As(err, *backend.Error) работает.
func mapBackendErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, backend.ErrNetwork):
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	case errors.Is(err, backend.ErrMalformedResponse):
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	case errors.Is(err, backend.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	case errors.Is(err, backend.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, backend.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnknownServer, err)
	}
}
