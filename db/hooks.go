package db

import (
	"context"
	"log/slog"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Hook
// ─────────────────────────────────────────────────────────────────────────────

// Hook observes every statement sent through a DB or Tx.
// Implementations must be safe for concurrent use. A panicking hook is
// recovered and logged; it never fails the statement.
type Hook interface {
	BeforeQuery(ctx context.Context, query string, args []any)

	// AfterQuery receives the wall-clock driver time and the mapped error.
	// For QueryRow err is always nil because the result is only known at Scan.
	AfterQuery(ctx context.Context, query string, args []any, duration time.Duration, err error)
}

type hookChain struct {
	hooks []Hook
}

func newHookChain(hooks []Hook) hookChain {
	var kept []Hook
	for _, h := range hooks {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return hookChain{hooks: kept}
}

func (c hookChain) Before(ctx context.Context, query string, args []any) {
	for _, h := range c.hooks {
		c.guard("BeforeQuery", func() { h.BeforeQuery(ctx, query, args) })
	}
}

func (c hookChain) After(ctx context.Context, query string, args []any, d time.Duration, err error) {
	for _, h := range c.hooks {
		c.guard("AfterQuery", func() { h.AfterQuery(ctx, query, args, d, err) })
	}
}

func (hookChain) guard(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("edu-platform/db: hook panic", "stage", stage, "panic", r)
		}
	}()
	fn()
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging hook
// ─────────────────────────────────────────────────────────────────────────────

// LogHookConfig configures the structured logging hook.
type LogHookConfig struct {
	// Logger defaults to slog.Default() if nil.
	Logger *slog.Logger
	// SlowQueryThreshold logs a warning when duration exceeds this value.
	// Zero disables slow-query logging.
	SlowQueryThreshold time.Duration
	// LogArgs includes bound parameters. Leave off in production: user rows
	// carry names and email addresses.
	LogArgs bool
}

// NewLogHook returns a Hook that emits structured log entries via slog.
func NewLogHook(cfg LogHookConfig) Hook {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &logHook{cfg: cfg, logger: logger}
}

type logHook struct {
	cfg    LogHookConfig
	logger *slog.Logger
}

func (h *logHook) BeforeQuery(context.Context, string, []any) {}

func (h *logHook) AfterQuery(ctx context.Context, query string, args []any, d time.Duration, err error) {
	attrs := []any{
		slog.String("query", trimQuery(query)),
		slog.Duration("duration", d),
	}
	if h.cfg.LogArgs && len(args) > 0 {
		attrs = append(attrs, slog.Any("args", args))
	}

	switch {
	case err != nil:
		h.logger.ErrorContext(ctx, "edu-platform/db: query error", append(attrs, slog.Any("error", err))...)
	case h.cfg.SlowQueryThreshold > 0 && d > h.cfg.SlowQueryThreshold:
		h.logger.WarnContext(ctx, "edu-platform/db: slow query", attrs...)
	default:
		h.logger.DebugContext(ctx, "edu-platform/db: query", attrs...)
	}
}

func trimQuery(q string) string {
	const limit = 500
	if len(q) > limit {
		return q[:limit] + "…"
	}
	return q
}
