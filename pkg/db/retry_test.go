package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{name: "serialization", err: &pq.Error{Code: "40001"}, want: ErrorClassSerialization},
		{name: "deadlock wrapped", err: fmt.Errorf("tx: %w", &pq.Error{Code: "40P01"}), want: ErrorClassDeadlock},
		{name: "lock timeout", err: &pq.Error{Code: "55P03"}, want: ErrorClassTransient},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: ErrorClassPermanent},
		{name: "plain", err: errors.New("boom"), want: ErrorClassPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(context.Background(), "sqlite:file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })
	return gdb
}

func TestWithRetry_RetriesTransientErrors(t *testing.T) {
	gdb := openTestDB(t)
	opts := DefaultTxOptions()
	opts.BaseBackoff = time.Millisecond

	calls := 0
	err := WithRetry(context.Background(), gdb, opts, func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	gdb := openTestDB(t)
	sentinel := errors.New("permanent")

	calls := 0
	err := WithRetry(context.Background(), gdb, DefaultTxOptions(), func(tx *gorm.DB) error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	gdb := openTestDB(t)
	opts := TxOptions{MaxRetries: 2, BaseBackoff: time.Millisecond}

	calls := 0
	err := WithRetry(context.Background(), gdb, opts, func(tx *gorm.DB) error {
		calls++
		return &pq.Error{Code: "40P01"}
	})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, calls)
}
