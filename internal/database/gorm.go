package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold marks queries that are logged at warn level
const slowQueryThreshold = 500 * time.Millisecond

// OpenGorm wraps an instrumented *sql.DB with a gorm handle that shares its pool.
func OpenGorm(sqlDB *sql.DB, logger *observability.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(gormpg.New(gormpg.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open gorm")
	}
	return db, nil
}

// gormLogger routes gorm's logging through the structured application logger.
type gormLogger struct {
	logger *observability.Logger
	level  gormlogger.LogLevel
}

func newGormLogger(logger *observability.Logger) gormlogger.Interface {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &gormLogger{logger: logger, level: gormlogger.Warn}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.logger.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.logger.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.logger.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sqlText, rows := fc()
		g.logger.Error(ctx, "Query failed", err, map[string]interface{}{
			"sql":         sqlText,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	case elapsed > slowQueryThreshold && g.level >= gormlogger.Warn:
		sqlText, rows := fc()
		g.logger.Warn(ctx, "Slow query", map[string]interface{}{
			"sql":         sqlText,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	case g.level >= gormlogger.Info:
		sqlText, rows := fc()
		g.logger.Debug(ctx, "Query", map[string]interface{}{
			"sql":         sqlText,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
}
