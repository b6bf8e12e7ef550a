package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database query tracing.
type DBTracingConfig struct {
	Enabled         bool          // Enable database tracing
	LogFullSQL      bool          // Include query variables in spans (dev only, security risk in prod)
	SlowQueryThresh time.Duration // Threshold for marking queries as slow
	DBName          string        // Database name recorded on spans
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// Register installs the otelgorm plugin on the GORM instance so every query
// emits a span, plus callbacks that mark slow queries and errors on those
// spans. A no-op when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{}
	if p.config.DBName != "" {
		opts = append(opts, otelgorm.WithDBName(p.config.DBName))
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerSlowQueryCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_name", p.config.DBName),
	)
	return nil
}

// startTimeKey is the instance key storing the query start time between the
// before and after callbacks.
const startTimeKey = "db_tracing:start_time"

func (p *DBTracingPlugin) registerSlowQueryCallbacks(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}

	// The after callbacks run once otelgorm has opened the span for the
	// statement, so the attributes land on the query span itself.
	regs := []error{
		db.Callback().Create().Before("gorm:create").Register("db_tracing:before_create", before),
		db.Callback().Query().Before("gorm:query").Register("db_tracing:before_query", before),
		db.Callback().Update().Before("gorm:update").Register("db_tracing:before_update", before),
		db.Callback().Delete().Before("gorm:delete").Register("db_tracing:before_delete", before),
		db.Callback().Row().Before("gorm:row").Register("db_tracing:before_row", before),
		db.Callback().Raw().Before("gorm:raw").Register("db_tracing:before_raw", before),
		db.Callback().Create().After("gorm:create").Register("db_tracing:after_create", p.afterQuery),
		db.Callback().Query().After("gorm:query").Register("db_tracing:after_query", p.afterQuery),
		db.Callback().Update().After("gorm:update").Register("db_tracing:after_update", p.afterQuery),
		db.Callback().Delete().After("gorm:delete").Register("db_tracing:after_delete", p.afterQuery),
		db.Callback().Row().After("gorm:row").Register("db_tracing:after_row", p.afterQuery),
		db.Callback().Raw().After("gorm:raw").Register("db_tracing:after_raw", p.afterQuery),
	}
	for _, err := range regs {
		if err != nil {
			return err
		}
	}
	return nil
}

// afterQuery annotates the active query span with row counts, the table
// name, errors, and a slow-query event when the statement exceeded the
// configured threshold.
func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if v, ok := db.InstanceGet(startTimeKey); ok {
		if startTime, ok := v.(time.Time); ok {
			elapsed := time.Since(startTime)
			if elapsed > p.config.SlowQueryThresh {
				span.SetAttributes(
					attribute.Bool("db.slow_query", true),
					attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
				)
				span.AddEvent("slow_query_warning", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
				))
			}
		}
	}
}
