package printing

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentRequest is an issued, provider-tracked payment intent. Status
// reflects the provider's answer at issuance time; later reads go through
// PaymentService.PaymentStatus, never through this struct.
type PaymentRequest struct {
	ID             string
	Amount         decimal.Decimal
	Status         PaymentStatus
	QRCode         string
	QRCodeBase64   string
	IdempotencyKey string
}

// PrinterDescriptor identifies a printer known to the directory
type PrinterDescriptor struct {
	Name        string
	DisplayName string
}

// PaymentService issues payment requests and answers live status queries.
// It is the sole source of truth on whether a payment is approved.
type PaymentService interface {
	// CreatePayment issues a payment for the given amount with a fresh
	// idempotency key. Fails when the provider does not return a usable
	// QR payload.
	CreatePayment(ctx context.Context, amount decimal.Decimal) (*PaymentRequest, error)

	// PaymentStatus queries the provider for the current status of the
	// payment. Every call is a live round trip.
	PaymentStatus(ctx context.Context, paymentID string) (PaymentStatus, error)
}

// PrinterDirectory lists the printers available for dispatch
type PrinterDirectory interface {
	List(ctx context.Context) ([]PrinterDescriptor, error)
}

// DispatchRequest carries an authorized document to the dispatcher
type DispatchRequest struct {
	PrinterName  string
	DocumentPath string
	JobName      string
}

// PrintDispatcher submits an authorized document to a named printer. It is
// the terminal side effect of the workflow.
type PrintDispatcher interface {
	Print(ctx context.Context, req DispatchRequest) error
}

// PageCounter computes the page count of a stored PDF
type PageCounter interface {
	Count(ctx context.Context, path string) (int, error)
}
