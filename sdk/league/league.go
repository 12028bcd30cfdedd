// Package league is the public entry point to the derived-metrics
// engine. It wraps the pure engine functions with logging, tracing and
// metrics so the surrounding dashboard gets observability without the
// engine itself carrying any of it.
package league

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahrav/go-rostrum/infrastructure/telemetry"
	"github.com/ahrav/go-rostrum/internal/domain"
	"github.com/ahrav/go-rostrum/internal/engine"
	"github.com/ahrav/go-rostrum/internal/ports"
)

// League computes league statistics from debate records. The zero
// value is not usable; construct with New.
type League struct {
	cfg     engine.Config
	logger  *slog.Logger
	metrics ports.MetricsCollector
}

// Option configures a League.
type Option func(*League)

// WithLogger attaches a structured logger. Without it, logging is
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(l *League) { l.logger = logger }
}

// WithMetrics attaches a metrics collector for pass latency and record
// counts.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(l *League) { l.metrics = collector }
}

// New creates a League with the given engine configuration.
func New(cfg engine.Config, opts ...Option) (*League, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &League{cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	return l, nil
}

// Derive runs the full metrics pass over records. The context is used
// only for tracing; the pass itself is synchronous and in-memory, so
// callers wanting a timeout impose it around the whole call.
func (l *League) Derive(ctx context.Context, records []domain.DebateRecord, opts engine.Options) domain.DerivedData {
	_, end := telemetry.StartDeriveSpan(ctx, "league.Derive", len(records), opts.IncludeRows, opts.IncludeBiasCV)
	start := time.Now()

	derived := engine.BuildDerived(records, l.cfg, opts)

	elapsed := time.Since(start)
	end(nil)
	if l.metrics != nil {
		l.metrics.RecordLatency("derive", elapsed, nil)
		l.metrics.RecordCounter("records", float64(len(records)), nil)
	}
	l.logger.Debug("derive pass complete",
		"records", len(records),
		"models", len(derived.Models),
		"bias_rows", len(derived.JudgeBias),
		"elapsed", elapsed,
	)
	return derived
}

// MergeCategories combines precomputed per-category results for a
// multi-category view.
func (l *League) MergeCategories(ctx context.Context, base domain.DerivedData, byCategory map[string]domain.DerivedData, selected []string) domain.DerivedData {
	_, end := telemetry.StartDeriveSpan(ctx, "league.MergeCategories", len(selected), false, false)
	start := time.Now()

	merged := engine.MergeDerivedByCategories(base, byCategory, selected)

	end(nil)
	if l.metrics != nil {
		l.metrics.RecordLatency("merge_categories", time.Since(start), nil)
	}
	return merged
}

// FilterModels restricts an already-computed result to the given model
// set.
func (l *League) FilterModels(ctx context.Context, d domain.DerivedData, models []string) domain.DerivedData {
	_, end := telemetry.StartDeriveSpan(ctx, "league.FilterModels", len(models), false, false)
	start := time.Now()

	filtered := engine.FilterDerivedByModels(d, models)

	end(nil)
	if l.metrics != nil {
		l.metrics.RecordLatency("filter_models", time.Since(start), nil)
	}
	return filtered
}
