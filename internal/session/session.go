// session описывает текущего пользователя запроса (SessionContext) и
// извлекает его из bearer-токена бэкенда.
//
// Session передаётся в операции явно, глобального «текущего пользователя» нет.
// Контекст используется только как транспорт от HTTP-мидлвара до хендлера.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/car-marketplace/internal/models"
)

var (
	// ErrNoToken — токен не передан.
	ErrNoToken = errors.New("no token")
	// ErrInvalidToken — токен не разбирается или подпись неверна.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
)

// Session — кто выполняет запрос. Нулевое значение — анонимный пользователь.
type Session struct {
	UserID      int64
	DisplayName string
	Role        string
	Token       string
	ExpiresAt   time.Time
}

// Anonymous — сессия без пользователя (разрешено только чтение).
var Anonymous = Session{}

// Authenticated — есть токен и идентификатор пользователя.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID > 0
}

// Expired — срок токена известен и уже прошёл.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsAdmin — роль администратора.
func (s Session) IsAdmin() bool {
	return strings.EqualFold(s.Role, "admin") || strings.EqualFold(s.Role, "administrador")
}

// Author возвращает ссылку на автора для комментариев.
func (s Session) Author() models.AuthorRef {
	return models.AuthorRef{UserID: s.UserID, DisplayName: s.DisplayName}
}

// Claims — имена claims, из которых читаются поля сессии.
type Claims struct {
	UserID string
	Name   string
	Role   string
}

// Parser разбирает bearer-токены бэкенда.
//
// Если Secret задан, подпись HMAC проверяется. Если нет, токен читается без
// проверки: бэкенд всё равно остаётся источником истины и ответит 401 на чужой токен.
type Parser struct {
	secret []byte
	claims Claims
	now    func() time.Time
}

// NewParser создаёт парсер. Пустые имена claims заменяются значениями по умолчанию.
func NewParser(secret string, claims Claims) *Parser {
	if claims.UserID == "" {
		claims.UserID = "id"
	}
	if claims.Name == "" {
		claims.Name = "nombre"
	}
	if claims.Role == "" {
		claims.Role = "rol"
	}

	return &Parser{secret: []byte(secret), claims: claims, now: time.Now}
}

// Parse строит Session из сырого токена (без префикса "Bearer ").
func (p *Parser) Parse(token string) (Session, error) {
	const op = "session/Parse"

	token = strings.TrimSpace(token)
	if token == "" {
		return Anonymous, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	mc := jwt.MapClaims{}

	if len(p.secret) > 0 {
		_, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return p.secret, nil
		}, jwt.WithTimeFunc(p.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return Anonymous, fmt.Errorf("%s: %w", op, ErrTokenExpired)
			}
			return Anonymous, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
			return Anonymous, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
		}
	}

	s := Session{Token: token}

	uid, ok := int64Claim(mc, p.claims.UserID)
	if !ok {
		uid, ok = int64Claim(mc, "sub")
	}
	if !ok || uid <= 0 {
		return Anonymous, fmt.Errorf("%s: %w: no user id claim", op, ErrInvalidToken)
	}
	s.UserID = uid

	s.DisplayName, _ = mc[p.claims.Name].(string)
	s.Role, _ = mc[p.claims.Role].(string)

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}

	if s.Expired(p.now()) {
		return Anonymous, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return s, nil
}

// int64Claim читает числовой идентификатор: JSON-число или числовая строка.
func int64Claim(mc jwt.MapClaims, name string) (int64, bool) {
	switch v := mc[name].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

type ctxKey struct{}

// Into кладёт сессию в контекст (только для передачи от мидлвара к хендлеру).
func Into(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From достаёт сессию из контекста; если её нет — Anonymous.
func From(ctx context.Context) Session {
	if s, ok := ctx.Value(ctxKey{}).(Session); ok {
		return s
	}

	return Anonymous
}
