package printing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printpay/backend/internal/domain/shared"
)

func TestDispatchLedgerReserveCommit(t *testing.T) {
	ledger := NewDispatchLedger()

	require.NoError(t, ledger.Reserve("pay-1"))
	ledger.Commit("pay-1")

	assert.True(t, ledger.Consumed("pay-1"))
	assert.ErrorIs(t, ledger.Reserve("pay-1"), shared.ErrPaymentConsumed)
}

func TestDispatchLedgerAbortAllowsRetry(t *testing.T) {
	ledger := NewDispatchLedger()

	require.NoError(t, ledger.Reserve("pay-1"))
	ledger.Abort("pay-1")

	assert.False(t, ledger.Consumed("pay-1"))
	// Dispatch failed, the same payment may try again
	assert.NoError(t, ledger.Reserve("pay-1"))
}

func TestDispatchLedgerAbortNeverReopensConsumed(t *testing.T) {
	ledger := NewDispatchLedger()

	require.NoError(t, ledger.Reserve("pay-1"))
	ledger.Commit("pay-1")

	// A late abort from a racing path must not resurrect the id
	ledger.Abort("pay-1")
	assert.True(t, ledger.Consumed("pay-1"))
	assert.ErrorIs(t, ledger.Reserve("pay-1"), shared.ErrPaymentConsumed)
}

func TestDispatchLedgerRejectsInFlightDuplicate(t *testing.T) {
	ledger := NewDispatchLedger()

	require.NoError(t, ledger.Reserve("pay-1"))
	// Second attempt while the first is still dispatching
	assert.ErrorIs(t, ledger.Reserve("pay-1"), shared.ErrPaymentConsumed)
}

func TestDispatchLedgerEmptyID(t *testing.T) {
	ledger := NewDispatchLedger()
	assert.Error(t, ledger.Reserve(""))
}

func TestDispatchLedgerConcurrentReserve(t *testing.T) {
	ledger := NewDispatchLedger()

	const attempts = 50
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.Reserve("pay-race") == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent reserve may win")
}

func TestDispatchLedgerIndependentPayments(t *testing.T) {
	ledger := NewDispatchLedger()

	require.NoError(t, ledger.Reserve("pay-a"))
	require.NoError(t, ledger.Reserve("pay-b"))
	ledger.Commit("pay-a")

	assert.True(t, ledger.Consumed("pay-a"))
	assert.False(t, ledger.Consumed("pay-b"))
}
