package cart

import "errors"

var (
	// ErrInvalidItem — позиция не прошла локальную валидацию (нет id/названия/цены).
	ErrInvalidItem = errors.New("invalid cart item")
	// ErrAlreadyInCart — объявление с таким listingId уже лежит в корзине.
	ErrAlreadyInCart = errors.New("already in cart")
	// ErrStorage — ошибка чтения/записи персистентного хранилища.
	ErrStorage = errors.New("cart storage failure")
)

// RejectedError — отказ в операции с человекочитаемой причиной.
// UI ветвится по Reason (показывает его рядом с кнопкой), код — по errors.Is(err, Err...).
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string { return e.Reason }

func (e *RejectedError) Unwrap() error { return e.Err }

func reject(sentinel error, reason string) error {
	return &RejectedError{Reason: reason, Err: sentinel}
}
