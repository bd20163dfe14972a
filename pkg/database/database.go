package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/yomishelf/yomishelf/pkg/config"
)

type key int

const ctxKey key = 0

func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

type logQueryHook struct {
	log logger.Logger
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	enabled, ok := ctx.Value(ctxKey).(bool)
	if !ok || !enabled {
		return
	}

	qh.log.Debug(event.Query)
}

func New(cfg *config.Config) (*bun.DB, error) {
	// Get the underlying SQLite driver and create a connector with retry
	// logic. The modernc build of the shim driver only implements Open, so
	// fall back to adapting it when OpenConnector is missing.
	drv := sqliteshim.Driver()
	var connector driver.Connector
	if drvCtx, ok := drv.(driver.DriverContext); ok {
		var err error
		connector, err = drvCtx.OpenConnector(cfg.DatabaseFilePath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	} else {
		connector = newDriverConnector(drv, cfg.DatabaseFilePath)
	}

	// Pragmas are per-connection state in SQLite, so they have to be applied
	// to every pooled connection rather than through a one-off Exec. WAL mode
	// allows concurrent reads during writes, busy_timeout makes SQLite wait
	// before returning SQLITE_BUSY, and foreign_keys makes a progress write
	// against a deleted volume fail with a constraint error instead of
	// silently inserting.
	connector = newPragmaConnector(connector,
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.DatabaseBusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON",
	)

	// Wrap the connector with retry logic for SQLITE_BUSY errors.
	sqldb := sql.OpenDB(newRetryConnector(connector, cfg.DatabaseMaxRetries))

	db := bun.NewDB(sqldb, sqlitedialect.New())

	// print out all queries in debug mode
	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{logger.NewWithLevel("debug")})
	}

	// Retry up to a few times to ensure that the database can connect.
	var err error
	for i := 0; i < cfg.DatabaseConnectRetryCount; i++ {
		_, err = db.Exec("SELECT 1")
		if err != nil {
			time.Sleep(cfg.DatabaseConnectRetryDelay)
			continue
		}
		// We've successfully connected.
		break
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return db, nil
}
