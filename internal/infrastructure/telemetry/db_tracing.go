package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string        // "postgresql" or "sqlite"
	IncludeVars     bool          // include bound values in db.statement
	SlowQueryThresh time.Duration // queries above this get a slow_query event
}

// RegisterDBTracing installs otelgorm plus slow-query annotations on db
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeVars {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	slow := &slowQueryCallbacks{threshold: cfg.SlowQueryThresh}
	if err := slow.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return nil
}

type queryStartKey struct{}

type slowQueryCallbacks struct {
	threshold time.Duration
}

func (s *slowQueryCallbacks) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (s *slowQueryCallbacks) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > s.threshold {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", s.threshold.Milliseconds()),
			))
		}
	}
}

func (s *slowQueryCallbacks) register(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("invoicely:timing_create", s.before),
		cb.Query().Before("gorm:query").Register("invoicely:timing_query", s.before),
		cb.Update().Before("gorm:update").Register("invoicely:timing_update", s.before),
		cb.Delete().Before("gorm:delete").Register("invoicely:timing_delete", s.before),
		cb.Row().Before("gorm:row").Register("invoicely:timing_row", s.before),
		cb.Raw().Before("gorm:raw").Register("invoicely:timing_raw", s.before),
		cb.Create().After("gorm:create").Register("invoicely:slow_create", s.after),
		cb.Query().After("gorm:query").Register("invoicely:slow_query", s.after),
		cb.Update().After("gorm:update").Register("invoicely:slow_update", s.after),
		cb.Delete().After("gorm:delete").Register("invoicely:slow_delete", s.after),
		cb.Row().After("gorm:row").Register("invoicely:slow_row", s.after),
		cb.Raw().After("gorm:raw").Register("invoicely:slow_raw", s.after),
	)
}
