// requestid переносит X-Request-Id входящего запроса до исходящих вызовов бэкенда.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header — имя HTTP-заголовка с идентификатором запроса.
const Header = "X-Request-Id"

type ctxKey struct{}

// Into кладёт идентификатор запроса в контекст.
func Into(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From возвращает идентификатор запроса или "".
func From(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// New генерирует новый идентификатор.
func New() string {
	return uuid.NewString()
}
