package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/pkg/apperror"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRetryTestManager(t *testing.T) TransactionManager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return NewTransactionManager(db)
}

func fastRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Millisecond,
		AttemptTimeout:    time.Second,
	}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestRunSerializable_SucceedsFirstAttempt(t *testing.T) {
	txm := newRetryTestManager(t)

	attempts := 0
	err := txm.RunSerializable(context.Background(), fastRetryPolicy(), func(txCtx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRunSerializable_RetriesSerializationFailure(t *testing.T) {
	txm := newRetryTestManager(t)

	attempts := 0
	err := txm.RunSerializable(context.Background(), fastRetryPolicy(), func(txCtx context.Context) error {
		attempts++
		if attempts < 2 {
			return serializationFailure()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRunSerializable_ExhaustedRetriesSurfaceAsConflict(t *testing.T) {
	txm := newRetryTestManager(t)

	attempts := 0
	err := txm.RunSerializable(context.Background(), fastRetryPolicy(), func(txCtx context.Context) error {
		attempts++
		return serializationFailure()
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "original cause must stay reachable")
}

func TestRunSerializable_NonRetryableFailsImmediately(t *testing.T) {
	txm := newRetryTestManager(t)

	boom := errors.New("boom")
	attempts := 0
	err := txm.RunSerializable(context.Background(), fastRetryPolicy(), func(txCtx context.Context) error {
		attempts++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestRunSerializable_CancelledContextStopsRetrying(t *testing.T) {
	txm := newRetryTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := txm.RunSerializable(ctx, fastRetryPolicy(), func(txCtx context.Context) error {
		attempts++
		cancel()
		return serializationFailure()
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"attempt timeout", context.DeadlineExceeded, true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"sqlite table lock", errors.New("database table is locked"), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		j := jitter(d)
		assert.GreaterOrEqual(t, j, d/2)
		assert.LessOrEqual(t, j, d)
	}
	assert.Equal(t, time.Duration(0), jitter(0))
}
