package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	logctx "github.com/pribylovaa/car-marketplace/internal/pkg/log"
	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
	"github.com/pribylovaa/car-marketplace/internal/session"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из каждой записи в map[string]any;
//   - не создаёт реальных I/O.
type capHandler struct {
	base   []slog.Attr
	shared *capState
}

type capState struct {
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func newCapHandler() *capHandler { return &capHandler{shared: &capState{}} }

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)

	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.shared.count++
	h.shared.lastMsg = r.Message
	h.shared.lastLvl = r.Level
	h.shared.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	base := append(append([]slog.Attr{}, h.base...), attrs...)
	return &capHandler{base: base, shared: h.shared}
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errEnvelope struct {
	Error apiError `json:"error"`
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	m1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m1-end")
		})
	}

	m2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m2-end")
		})
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	chain := Chain(final, m1, m2)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenID, seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get(requestid.Header)
		seenCtxID = requestid.From(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get(requestid.Header)
	_, err := uuid.Parse(respID)
	require.NoError(t, err)

	require.Equal(t, respID, seenID)
	require.Equal(t, respID, seenCtxID)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtxID = requestid.From(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set(requestid.Header, given)
	Chain(h, RequestID()).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get(requestid.Header))
	require.Equal(t, given, seenCtxID)
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestSession_PopulatesContext_WhenBearerValid(t *testing.T) {
	p := session.NewParser("s3cret", session.Claims{})
	tok := signed(t, "s3cret", jwt.MapClaims{"id": 7, "nombre": "Ana", "exp": time.Now().Add(time.Hour).Unix()})

	var got session.Session
	var authErr error
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.From(r.Context())
		authErr = AuthError(r.Context())
	})

	req := makeReq("/s")
	req.Header.Set("Authorization", "Bearer "+tok)
	Chain(h, Session(p)).ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, authErr)
	require.EqualValues(t, 7, got.UserID)
	require.Equal(t, "Ana", got.DisplayName)
	require.Equal(t, tok, got.Token)
}

func TestSession_AnonymousAndBroken(t *testing.T) {
	p := session.NewParser("s3cret", session.Claims{})

	var got session.Session
	var authErr error
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.From(r.Context())
		authErr = AuthError(r.Context())
	})
	chain := Chain(h, Session(p))

	// 1) Пусто.
	chain.ServeHTTP(httptest.NewRecorder(), makeReq("/s1"))
	require.False(t, got.Authenticated())
	require.NoError(t, authErr)

	// 2) Без префикса Bearer.
	req := makeReq("/s2")
	req.Header.Set("Authorization", "Basic aaa")
	chain.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, got.Authenticated())
	require.NoError(t, authErr)

	// 3) Просроченный токен: запрос проходит, ошибка сохранена.
	expired := signed(t, "s3cret", jwt.MapClaims{"id": 7, "exp": time.Now().Add(-time.Hour).Unix()})
	req = makeReq("/s3")
	req.Header.Set("Authorization", "Bearer "+expired)
	chain.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, got.Authenticated())
	require.ErrorIs(t, authErr, session.ErrTokenExpired)

	// 4) Чужая подпись.
	req = makeReq("/s4")
	req.Header.Set("Authorization", "Bearer "+signed(t, "other", jwt.MapClaims{"id": 7}))
	chain.ServeHTTP(httptest.NewRecorder(), req)
	require.ErrorIs(t, authErr, session.ErrInvalidToken)
}

func TestCartID_IssuesCookieOnce(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartIDFrom(r.Context())
	})
	chain := Chain(h, CartID(false))

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/cart"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CartCookie, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, cookies[0].Value, seen)

	// Повторный запрос с cookie — тот же id, новой cookie нет.
	req := makeReq("/cart")
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	require.Empty(t, rr.Result().Cookies())
	require.Equal(t, cookies[0].Value, seen)

	// Мусор в cookie заменяется новым id.
	req = makeReq("/cart")
	req.AddCookie(&http.Cookie{Name: CartCookie, Value: "../../etc"})
	rr = httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	require.Len(t, rr.Result().Cookies(), 1)
	require.NotEqual(t, "../../etc", seen)
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var hasDeadline bool
	var left time.Duration

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok := r.Context().Deadline()
		hasDeadline = ok
		if ok {
			left = time.Until(dl)
		}
		w.WriteHeader(http.StatusOK)
	})

	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout"))

	require.True(t, hasDeadline)
	require.Greater(t, left, time.Duration(0))
}

func TestTimeout_EarlierParentDeadlineWins(t *testing.T) {
	var childDL time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := makeReq("/timeout2").WithContext(parent)

	Chain(h, Timeout(1*time.Second)).ServeHTTP(httptest.NewRecorder(), req)

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestTimeout_ShorterThanParent(t *testing.T) {
	var left time.Duration

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, _ := r.Context().Deadline()
		left = time.Until(dl)
		w.WriteHeader(http.StatusOK)
	})

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout3").WithContext(parent))

	require.LessOrEqual(t, left, time.Second)
}

func TestTimeout_MarksTimedOutInLog(t *testing.T) {
	h := newCapHandler()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	Chain(slow, Logging(slog.New(h)), Timeout(10*time.Millisecond)).
		ServeHTTP(httptest.NewRecorder(), makeReq("/slow"))

	require.Equal(t, "http", h.shared.lastMsg)
	require.Equal(t, true, h.shared.attrs["timed_out"])
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "internal", env.Error.Code)
	require.NotEmpty(t, env.Error.Message)
}

// Запись о панике несёт поля, добавленные мидлварами глубже Recover.
func TestRecover_LogsWithRequestFields(t *testing.T) {
	h := newCapHandler()

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover(), RequestID(), Logging(slog.New(h)), CartID(false)).
		ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "panic", h.shared.lastMsg)
	require.Equal(t, slog.LevelError, h.shared.lastLvl)
	require.NotEmpty(t, h.shared.attrs["cart_id"])
	require.NotEmpty(t, h.shared.attrs["request_id"])
	require.Equal(t, "boom", h.shared.attrs["reason"])
}

// Если статус уже отправлен, Recover не дописывает тело ошибки.
func TestRecover_AfterHeadersSent(t *testing.T) {
	h := newCapHandler()

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover(), Logging(slog.New(h))).ServeHTTP(rr, makeReq("/late"))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, rr.Body.String())
	require.Equal(t, true, h.shared.attrs["headers_sent"])
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	h := newCapHandler()
	logger := slog.New(h)

	const rid = "rid-456"
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logctx.From(r.Context()).Debug("inside")
		_, _ = w.Write([]byte("0123456789"))
	})

	handler := Chain(final, RequestID(), Logging(logger), CartID(false))

	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set(requestid.Header, rid)

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 2, h.shared.count)
	require.Equal(t, "http", h.shared.lastMsg)

	attrs := h.shared.attrs
	require.Equal(t, http.MethodGet, attrs["method"])
	require.Equal(t, "/log", attrs["path"])
	require.EqualValues(t, http.StatusOK, attrs["status"])
	require.EqualValues(t, 10, attrs["bytes"])
	require.Equal(t, rid, attrs["request_id"])
	require.NotEmpty(t, attrs["cart_id"], "поле из внутреннего мидлвара попадает в итоговую запись")

	_, hasDur := attrs["dur"]
	require.True(t, hasDur)
}

func TestLogging_ServerErrorLevel(t *testing.T) {
	h := newCapHandler()

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	Chain(final, Logging(slog.New(h))).ServeHTTP(httptest.NewRecorder(), makeReq("/x"))
	require.Equal(t, slog.LevelError, h.shared.lastLvl)
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := newStatusWriter(rr)

	_, _ = sw.Write([]byte("abcd"))

	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 4, sw.count)
}
