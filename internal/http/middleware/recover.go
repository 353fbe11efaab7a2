package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/car-marketplace/internal/errors"
	logctx "github.com/pribylovaa/car-marketplace/internal/pkg/log"
)

var errPanic = errors.New("internal")

// Recover перехватывает panic, конвертирует в 500/internal и пишет унифицированный ответ.
// Детали паники не утекают на клиент.
//
// Запись "panic" пишется логгером запроса с полями, которые успели добавить
// внутренние мидлвары (request_id, user_id, cart_id). Если ответ уже начат,
// тело ошибки не пишется.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probe := &loggerProbe{lg: logctx.From(r.Context())}
			r = r.WithContext(intoProbe(r.Context(), probe))
			sw := newStatusWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				probe.logger().LogAttrs(r.Context(), slog.LevelError, "panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("headers_sent", sw.wroteHeader()),
					slog.Any("reason", rec),
				)

				if !sw.wroteHeader() {
					apierrors.WriteError(sw, r, errPanic)
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
