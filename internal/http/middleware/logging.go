package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/car-marketplace/internal/pkg/log"
	"github.com/pribylovaa/car-marketplace/internal/pkg/requestid"
)

// Logging кладёт request-scoped логгер в контекст и пишет одну запись на запрос.
// Поля, выясненные глубже по цепочке (user_id, cart_id), попадают в итоговую запись.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := requestid.From(r.Context()); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			ctx := logctx.Into(r.Context(), reqLogger)

			// Пробу мог положить Recover: тогда запись о панике тоже получит поля запроса.
			probe, ok := probeFrom(ctx)
			if !ok {
				probe = &loggerProbe{}
				ctx = intoProbe(ctx, probe)
			}
			probe.set(reqLogger)
			r = r.WithContext(ctx)

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("dur", dur),
				slog.Int("bytes", sw.count),
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}

			probe.logger().LogAttrs(r.Context(), level, "http", attrs...)
		})
	}
}
