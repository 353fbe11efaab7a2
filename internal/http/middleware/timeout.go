package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Timeout ограничивает обработку запроса сроком d; более ранний дедлайн запроса
// остаётся в силе. Запрос, упёршийся в срок, получает в итоговой записи лога timed_out.
// Значение <=0 делает мидлвар no-op.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				enrich(ctx, "timed_out", true)
			}
		})
	}
}
