package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/migrations"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	count, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	user, err := svc.CreateUser(ctx, "reader", "password123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)

	authed, err := svc.Authenticate(ctx, "reader", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	// usernames are case insensitive
	authed, err = svc.Authenticate(ctx, "READER", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "reader", "wrong")
	assert.Error(t, err)

	_, err = svc.Authenticate(ctx, "nobody", "password123")
	assert.Error(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "reader", "password123")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Reader", "password456")
	assert.ErrorIs(t, err, errcodes.Conflict("Username"))
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "reader", "password123")
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "reader", claims.Username)

	// a token signed with another secret is rejected
	otherSvc := NewService(db, "other-secret")
	_, err = otherSvc.ValidateToken(token)
	assert.Error(t, err)
}
