package middleware

import (
	"context"
	"log/slog"
	"sync"

	logctx "github.com/pribylovaa/car-marketplace/internal/pkg/log"
)

// loggerProbe хранит самый «обогащённый» логгер запроса: внутренние мидлвары
// дописывают в него поля, а Logging пишет итоговую запись уже с ними.
type loggerProbe struct {
	mu sync.Mutex
	lg *slog.Logger
}

func (p *loggerProbe) logger() *slog.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lg
}

func (p *loggerProbe) set(lg *slog.Logger) {
	p.mu.Lock()
	p.lg = lg
	p.mu.Unlock()
}

type probeKey struct{}

func probeFrom(ctx context.Context) (*loggerProbe, bool) {
	p, ok := ctx.Value(probeKey{}).(*loggerProbe)
	return p, ok
}

func intoProbe(ctx context.Context, p *loggerProbe) context.Context {
	return context.WithValue(ctx, probeKey{}, p)
}

// enrich добавляет поля к логгеру запроса (и в контексте, и в итоговой записи).
func enrich(ctx context.Context, args ...any) context.Context {
	ctx = logctx.With(ctx, args...)

	if p, ok := probeFrom(ctx); ok {
		p.set(logctx.From(ctx))
	}

	return ctx
}
