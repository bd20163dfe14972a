package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestIsBusyError(t *testing.T) {
	t.Parallel()

	busy := []error{
		errors.New("database is locked"),
		errors.New("database table is locked"),
		errors.New("SQLITE_BUSY"),
		errors.New("SQLITE_LOCKED"),
		errors.New("sqlite: step: database is locked (5) (SQLITE_BUSY)"),
		errors.New("sqlite: step: database table is locked (6)"),
	}
	for _, err := range busy {
		assert.True(t, isBusyError(err), err.Error())
	}

	notBusy := []error{
		errors.New("no such table: volumes"),
		errors.New("UNIQUE constraint failed: series.folder_name"),
		errors.New("FOREIGN KEY constraint failed"),
		errors.New("connection refused"),
	}
	for _, err := range notBusy {
		assert.False(t, isBusyError(err), err.Error())
	}

	assert.False(t, isBusyError(nil))
}

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("returns nil without retrying on success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retryWithBackoff(context.Background(), 5, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries busy errors until the call succeeds", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retryWithBackoff(context.Background(), 5, func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retryWithBackoff(context.Background(), 5, func() error {
			calls++
			return errors.New("UNIQUE constraint failed: series.folder_name")
		})
		require.EqualError(t, err, "UNIQUE constraint failed: series.folder_name")
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after maxRetries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retryWithBackoff(context.Background(), 2, func() error {
			calls++
			return errors.New("database is locked")
		})
		require.EqualError(t, err, "database is locked")
		// the initial attempt plus two retries
		assert.Equal(t, 3, calls)
	})

	t.Run("zero maxRetries means a single attempt", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retryWithBackoff(context.Background(), 0, func() error {
			calls++
			return errors.New("database is locked")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops waiting when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := retryWithBackoff(ctx, 10, func() error {
			calls++
			return errors.New("database is locked")
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.GreaterOrEqual(t, calls, 1)
		assert.Less(t, calls, 11)
	})
}

func TestDriverConnector(t *testing.T) {
	t.Parallel()

	db := sql.OpenDB(newDriverConnector(sqliteshim.Driver(), ":memory:"))
	defer db.Close()
	db.SetMaxOpenConns(1)

	var one int
	err := db.QueryRow("SELECT 1").Scan(&one)
	require.NoError(t, err)
	assert.Equal(t, 1, one)
}
