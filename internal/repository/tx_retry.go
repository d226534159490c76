package repository

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"backend/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// RetryPolicy bounds the retry loop around a serializable transaction:
// MaxAttempts total attempts, exponential backoff from InitialBackoff with
// BackoffMultiplier, capped at MaxBackoff, jittered. AttemptTimeout bounds a
// single attempt; exceeding it counts as a failed attempt.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
	AttemptTimeout    time.Duration
}

// DefaultRetryPolicy matches the engine's contract: 3 attempts total, base
// delay doubling per attempt plus random jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        time.Second,
		AttemptTimeout:    5 * time.Second,
	}
}

// RunSerializable executes fn inside a serializable transaction, retrying on
// write conflicts per the policy. fn must re-validate its preconditions on
// every attempt; a losing writer never overwrites a winning writer's state
// because each attempt re-reads inside a fresh transaction. Exhausted retries
// surface as a Conflict error; no partial state is ever committed.
func (t *transactionManager) RunSerializable(ctx context.Context, policy RetryPolicy, fn func(txCtx context.Context) error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BackoffMultiplier <= 0 {
		policy.BackoffMultiplier = 2.0
	}

	backoff := policy.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		}

		err := t.db.WithContext(attemptCtx).Transaction(func(tx *gorm.DB) error {
			txCtx := context.WithValue(attemptCtx, txKey, tx)
			return fn(txCtx)
		}, t.txOptions())
		cancel()

		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		// The caller's context is gone: retrying cannot succeed.
		if ctx.Err() != nil {
			return err
		}

		lastErr = err
		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-time.After(jitter(backoff)):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * policy.BackoffMultiplier)
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}

	return apperror.Wrap(apperror.KindConflict, lastErr, "transaction retries exhausted after %d attempts", policy.MaxAttempts)
}

// IsRetryable reports whether err is a transient write conflict: a Postgres
// serialization failure or deadlock, an attempt timeout, or an SQLite busy
// error under test.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// jitter returns a random duration in [d/2, d].
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
