package printing

import (
	"sync"

	"github.com/printpay/backend/internal/domain/shared"
)

// DispatchLedger enforces the at-most-once dispatch invariant: a given
// payment id authorizes a single successful print, even when duplicate
// requests race. Callers reserve the id before dispatching, then either
// commit (the physical print happened) or abort (dispatch failed, a retry
// with the same id is allowed).
type DispatchLedger struct {
	mu      sync.Mutex
	entries map[string]dispatchState
}

type dispatchState int

const (
	dispatchInFlight dispatchState = iota
	dispatchDone
)

// NewDispatchLedger creates an empty ledger
func NewDispatchLedger() *DispatchLedger {
	return &DispatchLedger{
		entries: make(map[string]dispatchState),
	}
}

// Reserve claims the payment id for a dispatch attempt. It fails when the
// id already produced a successful print or another attempt is in flight.
func (l *DispatchLedger) Reserve(paymentID string) error {
	if paymentID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment ID cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[paymentID]; exists {
		return shared.ErrPaymentConsumed
	}
	l.entries[paymentID] = dispatchInFlight
	return nil
}

// Commit marks the reserved payment id as consumed by a successful dispatch
func (l *DispatchLedger) Commit(paymentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[paymentID] = dispatchDone
}

// Abort releases the reservation after a failed dispatch so the caller can
// retry with the same payment id
func (l *DispatchLedger) Abort(paymentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[paymentID] == dispatchInFlight {
		delete(l.entries, paymentID)
	}
}

// Consumed reports whether the payment id already authorized a print
func (l *DispatchLedger) Consumed(paymentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[paymentID] == dispatchDone
}
