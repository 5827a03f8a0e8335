package persist

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseLogger forwards goose's progress lines to zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.log.Infof(format, v...) }

// Fatalf logs instead of exiting; RunMigrations returns the error.
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.log.Errorf(format, v...) }

// RunMigrations brings the journal schema up to date and logs the version
// before and after.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	log = log.With(zap.String("component", "migrations"))
	goose.SetLogger(gooseLogger{log: log.Sugar()})
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if after != before {
		log.Info("journal schema migrated", zap.Int64("from", before), zap.Int64("to", after))
	} else {
		log.Debug("journal schema up to date", zap.Int64("version", after))
	}
	return nil
}
