package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/car-marketplace/internal/cart"
	"github.com/pribylovaa/car-marketplace/internal/comments"
)

// maxBodyBytes — предел тела входящего запроса.
const maxBodyBytes = 1 << 20

// errInvalidArgument — локальная ошибка разбора запроса (-> 400 validation_error).
var errInvalidArgument = fmt.Errorf("%w: invalid argument", comments.ErrValidation)

// Handlers агрегирует зависимости: корзины и сервис комментариев.
type Handlers struct {
	Carts    *cart.Carts
	Comments *comments.Service
}

func New(carts *cart.Carts, svc *comments.Service) *Handlers {
	return &Handlers{Carts: carts, Comments: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// decodeLenient — декодер для объектов, которые фронт собирает из карточки
// объявления: лишние поля игнорируются.
func decodeLenient(w http.ResponseWriter, r *http.Request, value any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(value)
}

// int64Param — положительный целый параметр пути.
func int64Param(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: path param %s", errInvalidArgument, name)
	}

	return n, nil
}
