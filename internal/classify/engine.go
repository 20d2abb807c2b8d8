package classify

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/crashsense-ai/crashsense/internal/reading"
	"github.com/crashsense-ai/crashsense/internal/verdict"
)

// Engine produces a verdict for every reading. The primary strategy is
// optional and best-effort; the fallback must be total. Classify never
// fails, because the caller's ability to act on a genuine accident must not
// depend on an external service being reachable.
type Engine struct {
	primary  Strategy
	fallback Strategy
	logger   *zap.Logger

	fallbacks  atomic.Uint64
	onFallback func(err error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithPrimary installs the assisted tier. Without it the engine runs the
// deterministic tier only.
func WithPrimary(s Strategy) Option {
	return func(e *Engine) { e.primary = s }
}

// WithFallbackHook registers a callback invoked each time the primary tier
// is unavailable, with the cause. Used to feed metrics.
func WithFallbackHook(fn func(err error)) Option {
	return func(e *Engine) { e.onFallback = fn }
}

// NewEngine builds an engine over the deterministic rule table.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		fallback: NewRules(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify runs the primary tier once if configured, then degrades to the
// rule table on any failure. The fallback is pure CPU work and runs even
// when ctx was cancelled after the primary attempt, so an abandoned upstream
// call never leaves the request without a verdict.
func (e *Engine) Classify(ctx context.Context, r reading.Reading) verdict.Verdict {
	if e.primary != nil {
		v, err := e.primary.Classify(ctx, r)
		if err == nil {
			return v.Normalize()
		}
		e.fallbacks.Add(1)
		e.logger.Warn("primary classification unavailable, using rule table",
			zap.Error(err),
			zap.Float64("impact", r.Impact),
			zap.Float64("speed", r.Speed),
		)
		if e.onFallback != nil {
			e.onFallback(err)
		}
	}

	v, _ := e.fallback.Classify(ctx, r)
	return v.Normalize()
}

// Fallbacks reports how many times the engine degraded to the rule table.
func (e *Engine) Fallbacks() uint64 {
	return e.fallbacks.Load()
}
