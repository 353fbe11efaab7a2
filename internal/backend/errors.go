package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork — транспортный сбой: соединение, DNS, таймаут.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse — тело ответа не JSON или не той формы.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnauthorized — бэкенд ответил 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — бэкенд ответил 403 (в т.ч. «не владелец»).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — бэкенд ответил 404.
	ErrNotFound = errors.New("not found")
	// ErrServer — 5xx или любой другой неуспешный статус.
	ErrServer = errors.New("server error")
)

// Error — подробности неудачного вызова бэкенда.
//
// Kind — один из sentinel-ов пакета, Body — сырое тело ответа (для диагностики
// битых ответов и показа текста ошибки сервера), Status — HTTP-статус (0 при сбое транспорта).
type Error struct {
	Kind   error
	Route  string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("backend %s: %v", e.Route, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": body=" + e.Body
	}

	return msg
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}

	return out
}

// kindFromStatus — маппинг неуспешного HTTP-статуса в sentinel.
func kindFromStatus(status int) error {
	switch status {
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	default:
		return ErrServer
	}
}
