package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pribylovaa/car-marketplace/internal/session"
)

type authErrKey struct{}

// Session извлекает Bearer-токен из Authorization и кладёт в контекст Session.
//
// Запрос без токена идёт дальше анонимно. Битый или просроченный токен тоже не
// обрывает запрос (чтение публично), но ошибка разбора сохраняется: хендлеры
// мутаций отдают её через AuthError.
func Session(p *session.Parser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			s, err := p.Parse(token)
			if err != nil {
				ctx = context.WithValue(ctx, authErrKey{}, err)
			} else {
				ctx = session.Into(ctx, s)
				ctx = enrich(ctx, "user_id", s.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthError — ошибка разбора токена текущего запроса (nil, если токена нет или он валиден).
func AuthError(ctx context.Context) error {
	err, _ := ctx.Value(authErrKey{}).(error)
	return err
}

func bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
