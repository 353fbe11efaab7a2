package backend

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/metrics"
	"github.com/pribylovaa/car-marketplace/internal/pkg/log"
	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
)

// roundTripperFunc — адаптер функции к http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type routeKey struct{}

// withRoute помечает исходящий запрос логическим именем маршрута (для логов и метрик).
func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(ctx context.Context) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok && r != "" {
		return r
	}

	return "unknown"
}

// withMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id (из контекста или новый),
//   - User-Agent (если передан параметром).
//
// Authorization сюда не входит: токен берётся из явно переданной сессии.
func withMetadata(next http.RoundTripper, userAgent string) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())

		rid := requestid.From(r.Context())
		if rid == "" {
			rid = requestid.New()
		}
		r.Header.Set(requestid.Header, rid)

		if userAgent != "" {
			r.Header.Set("User-Agent", userAgent)
		}

		return next.RoundTrip(r)
	})
}

// withTimeout ограничивает вызов таймаутом d. Если у контекста уже есть дедлайн,
// действует более ранний из двух.
// cancel вызывается при закрытии тела ответа, чтобы не оборвать его чтение.
func withTimeout(next http.RoundTripper, d time.Duration) http.RoundTripper {
	if d <= 0 {
		return next
	}

	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		resp, err := next.RoundTrip(r.WithContext(ctx))
		if err != nil {
			cancel()
			return nil, err
		}

		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	})
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// withLogging пишет одну итоговую запись на исходящий вызов: msg="backend_call",
// route, method, status, dur. Тело и заголовки (токен!) не логируются.
func withLogging(next http.RoundTripper, base *slog.Logger) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()

		lg := base
		if lg == nil {
			lg = log.From(r.Context())
		}

		resp, err := next.RoundTrip(r)

		attrs := []slog.Attr{
			slog.String("route", routeFrom(r.Context())),
			slog.String("method", r.Method),
			slog.String("request_id", r.Header.Get(requestid.Header)),
			slog.Duration("dur", time.Since(start)),
		}

		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			lg.LogAttrs(r.Context(), slog.LevelWarn, "backend_call", attrs...)
			return nil, err
		}

		attrs = append(attrs, slog.Int("status", resp.StatusCode))
		level := slog.LevelInfo
		if resp.StatusCode >= 500 {
			level = slog.LevelWarn
		}
		lg.LogAttrs(r.Context(), level, "backend_call", attrs...)

		return resp, nil
	})
}

// withMetrics считает вызовы и латентность по маршруту.
func withMetrics(next http.RoundTripper, m *metrics.Metrics) http.RoundTripper {
	if m == nil {
		return next
	}

	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)

		status := 0
		if err == nil {
			status = resp.StatusCode
		}
		m.ObserveBackend(routeFrom(r.Context()), status, time.Since(start))

		return resp, err
	})
}

// chain собирает цепочку: metadata -> timeout -> logging -> metrics -> base.
func chain(base http.RoundTripper, opts Options) http.RoundTripper {
	rt := withMetrics(base, opts.Metrics)
	rt = withLogging(rt, opts.Logger)
	rt = withTimeout(rt, opts.Timeout)
	return withMetadata(rt, opts.UserAgent)
}
