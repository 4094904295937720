package printing

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/printpay/backend/internal/domain/printing"
)

// PaymentWatcher polls the provider for a payment's status until it reaches
// a terminal state. It replaces the frontend's recurring timer with a
// cooperative task that always cancels itself: on a terminal status, on
// context cancellation, or when the watch window expires.
//
// The watcher is observational. Print authorization never reads anything it
// produced; the gate performs its own live query at dispatch time.
type PaymentWatcher struct {
	payments     domain.PaymentService
	pollInterval time.Duration
	maxDuration  time.Duration
	logger       *zap.Logger
}

// NewPaymentWatcher creates a watcher polling at the given interval
func NewPaymentWatcher(payments domain.PaymentService, pollInterval, maxDuration time.Duration, logger *zap.Logger) *PaymentWatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxDuration <= 0 {
		maxDuration = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentWatcher{
		payments:     payments,
		pollInterval: pollInterval,
		maxDuration:  maxDuration,
		logger:       logger,
	}
}

// Watch polls until the payment is terminal. Each observed status is passed
// to onStatus (which may be nil). Blocks; callers run it in a goroutine.
func (w *PaymentWatcher) Watch(ctx context.Context, paymentID string, onStatus func(domain.PaymentStatus)) {
	ctx, cancel := context.WithTimeout(ctx, w.maxDuration)
	defer cancel()

	log := w.logger.With(zap.String("payment_id", paymentID))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("payment watch ended", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			status, err := w.payments.PaymentStatus(ctx, paymentID)
			if err != nil {
				// Transient provider failures are survivable, the next
				// tick queries again
				log.Warn("payment status poll failed", zap.Error(err))
				continue
			}
			if onStatus != nil {
				onStatus(status)
			}
			if status.IsTerminal() {
				log.Info("payment reached terminal status",
					zap.String("status", status.String()))
				return
			}
		}
	}
}
