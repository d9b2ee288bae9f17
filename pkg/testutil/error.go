package testutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/solana"
)

// AssertInstructionError verifies that err is a transaction error raised by
// the instruction at index, and that it wraps target.
func AssertInstructionError(t *testing.T, err error, index int, target error) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr), "not a transaction error: %v", err)
	assert.Equal(t, solana.TransactionErrorInstructionError, txErr.ErrorKey())
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, index, txErr.InstructionError().Index)
	assert.True(t, errors.Is(err, target), "expected %v, got %v", target, err)
}

// AssertTransactionError verifies that err is a transaction level error with
// the provided key.
func AssertTransactionError(t *testing.T, err error, key solana.TransactionErrorKey) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr), "not a transaction error: %v", err)
	assert.Equal(t, key, txErr.ErrorKey())
}
