package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "connection class", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "pq deadlock", err: &pq.Error{Code: "40P01"}, want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "check violation", err: &pq.Error{Code: "23514"}, want: false},
		{name: "bad conn", err: driver.ErrBadConn, want: true},
		{name: "sqlite busy", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "sqlite busy behind app error", err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("database is locked (5) (SQLITE_BUSY)"), "create order"), want: true},
		{name: "reset behind app error", err: fmt.Errorf("tx: %w", pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("read tcp: connection reset by peer"), "decrement stock")), want: true},
		{name: "plain", err: errors.New("insufficient stock"), want: false},
		{name: "plain behind app error", err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("no such table: orders"), "create order"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestIsUniqueViolationSeesWrappedCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: cart_items.retailer_id, cart_items.wholesaler_product_id")
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "insert cart item")
	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "cart_items.retailer_id"))
	assert.False(t, IsUniqueViolation(err, "orders_pkey"))
}

func TestWithRetryRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	var retried []int
	policy := fastPolicy(3)
	policy.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	err := WithRetry(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithRetryRetriesWrappedSQLiteBusy(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("database is locked (5) (SQLITE_BUSY)"), "create order")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryStopsOnNonTransient(t *testing.T) {
	calls := 0
	sentinel := errors.New("out of stock")
	err := WithRetry(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.False(t, errors.Is(err, ErrRetriesExhausted))
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "40001", pgErr.Code)
}

func TestWithRetryHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := WithRetry(ctx, fastPolicy(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
