package middleware

import (
	"net/http"

	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
)

// RequestID обеспечивает наличие X-Request-Id:
//  1. читает заголовок X-Request-Id, если есть;
//  2. иначе генерирует uuid;
//  3. кладёт id в Response Header, Request Header и в контекст
//     (его читает транспорт клиента бэкенда).
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestid.Header)
			if id == "" {
				id = requestid.New()
				r.Header.Set(requestid.Header, id)
			}
			w.Header().Set(requestid.Header, id)

			ctx := requestid.Into(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
