package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CartCookie — имя cookie с идентификатором корзины браузера.
const CartCookie = "cart_id"

const cartCookieMaxAge = 365 * 24 * time.Hour

type cartIDKey struct{}

// CartID обеспечивает идентификатор корзины: берёт его из cookie cart_id или выдаёт
// новый uuid и ставит cookie. Корзина живёт, пока живёт cookie браузера.
func CartID(secure bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(CartCookie); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					id = c.Value
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cartCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), cartIDKey{}, id)
			ctx = enrich(ctx, "cart_id", id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CartIDFrom — идентификатор корзины текущего запроса.
func CartIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(cartIDKey{}).(string)
	return id
}
