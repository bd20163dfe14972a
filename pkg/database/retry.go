package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// driverConnector adapts a plain driver.Driver to driver.Connector so that
// sql.OpenDB works with drivers that don't implement OpenConnector.
type driverConnector struct {
	driver driver.Driver
	dsn    string
}

func newDriverConnector(drv driver.Driver, dsn string) *driverConnector {
	return &driverConnector{driver: drv, dsn: dsn}
}

func (dc *driverConnector) Connect(_ context.Context) (driver.Conn, error) {
	return dc.driver.Open(dc.dsn)
}

func (dc *driverConnector) Driver() driver.Driver {
	return dc.driver
}

// pragmaConnector runs the given pragma statements on every new connection.
// SQLite pragmas like foreign_keys are per-connection state, so issuing them
// through the pool would only configure whichever connection picked them up.
type pragmaConnector struct {
	connector driver.Connector
	pragmas   []string
}

func newPragmaConnector(connector driver.Connector, pragmas ...string) *pragmaConnector {
	return &pragmaConnector{connector: connector, pragmas: pragmas}
}

func (pc *pragmaConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := pc.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		_ = conn.Close()
		return nil, errors.New("sqlite connection does not support ExecerContext")
	}
	for _, pragma := range pc.pragmas {
		if _, err := execer.ExecContext(ctx, pragma, nil); err != nil {
			_ = conn.Close()
			return nil, errors.Wrapf(err, "failed to apply %s", pragma)
		}
	}
	return conn, nil
}

func (pc *pragmaConnector) Driver() driver.Driver {
	return pc.connector.Driver()
}

// retryConnector wraps a driver.Connector and retries SQLITE_BUSY errors with
// exponential backoff. SQLite only allows a single writer, so concurrent
// uploads occasionally collide on commit-phase inserts.
type retryConnector struct {
	connector  driver.Connector
	maxRetries int
}

func newRetryConnector(connector driver.Connector, maxRetries int) *retryConnector {
	return &retryConnector{connector: connector, maxRetries: maxRetries}
}

func (rc *retryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := rc.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &retryConn{conn: conn, maxRetries: rc.maxRetries}, nil
}

func (rc *retryConnector) Driver() driver.Driver {
	return rc.connector.Driver()
}

// isBusyError checks if the error is a SQLite BUSY or LOCKED error. Works with
// both mattn/go-sqlite3 and modernc.org/sqlite drivers.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "SQLITE_LOCKED") ||
		strings.Contains(errStr, "(5)") ||
		strings.Contains(errStr, "(6)")
}

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	baseDelay := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isBusyError(err) || attempt == maxRetries {
			return err
		}

		// Exponential backoff with up to 25% jitter, capped at 2s.
		delay := baseDelay * time.Duration(1<<attempt)
		delay += time.Duration(rand.Int63n(int64(delay / 4)))
		if delay > 2*time.Second {
			delay = 2 * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}

type retryConn struct {
	conn       driver.Conn
	maxRetries int
}

func (c *retryConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &retryStmt{stmt: stmt, maxRetries: c.maxRetries}, nil
}

func (c *retryConn) Close() error {
	return c.conn.Close()
}

func (c *retryConn) Begin() (driver.Tx, error) {
	var tx driver.Tx
	err := retryWithBackoff(context.Background(), c.maxRetries, func() error {
		var innerErr error
		tx, innerErr = c.conn.Begin() //nolint:staticcheck // deprecated but required for interface
		return innerErr
	})
	return tx, err
}

func (c *retryConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if connBeginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		var tx driver.Tx
		err := retryWithBackoff(ctx, c.maxRetries, func() error {
			var innerErr error
			tx, innerErr = connBeginTx.BeginTx(ctx, opts)
			return innerErr
		})
		return tx, err
	}
	return c.Begin()
}

func (c *retryConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if connPrepareContext, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err := connPrepareContext.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &retryStmt{stmt: stmt, maxRetries: c.maxRetries}, nil
	}
	return c.Prepare(query)
}

func (c *retryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execerContext, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var result driver.Result
	err := retryWithBackoff(ctx, c.maxRetries, func() error {
		var innerErr error
		result, innerErr = execerContext.ExecContext(ctx, query, args)
		return innerErr
	})
	return result, err
}

func (c *retryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryerContext, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := retryWithBackoff(ctx, c.maxRetries, func() error {
		var innerErr error
		rows, innerErr = queryerContext.QueryContext(ctx, query, args)
		return innerErr
	})
	return rows, err
}

type retryStmt struct {
	stmt       driver.Stmt
	maxRetries int
}

func (s *retryStmt) Close() error {
	return s.stmt.Close()
}

func (s *retryStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *retryStmt) Exec(args []driver.Value) (driver.Result, error) {
	var result driver.Result
	err := retryWithBackoff(context.Background(), s.maxRetries, func() error {
		var innerErr error
		result, innerErr = s.stmt.Exec(args) //nolint:staticcheck // deprecated but required for interface
		return innerErr
	})
	return result, err
}

func (s *retryStmt) Query(args []driver.Value) (driver.Rows, error) {
	var rows driver.Rows
	err := retryWithBackoff(context.Background(), s.maxRetries, func() error {
		var innerErr error
		rows, innerErr = s.stmt.Query(args) //nolint:staticcheck // deprecated but required for interface
		return innerErr
	})
	return rows, err
}

func (s *retryStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	stmtExecContext, ok := s.stmt.(driver.StmtExecContext)
	if !ok {
		values := make([]driver.Value, len(args))
		for i, arg := range args {
			values[i] = arg.Value
		}
		return s.Exec(values)
	}
	var result driver.Result
	err := retryWithBackoff(ctx, s.maxRetries, func() error {
		var innerErr error
		result, innerErr = stmtExecContext.ExecContext(ctx, args)
		return innerErr
	})
	return result, err
}

func (s *retryStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	stmtQueryContext, ok := s.stmt.(driver.StmtQueryContext)
	if !ok {
		values := make([]driver.Value, len(args))
		for i, arg := range args {
			values[i] = arg.Value
		}
		return s.Query(values)
	}
	var rows driver.Rows
	err := retryWithBackoff(ctx, s.maxRetries, func() error {
		var innerErr error
		rows, innerErr = stmtQueryContext.QueryContext(ctx, args)
		return innerErr
	})
	return rows, err
}
