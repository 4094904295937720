package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/printpay/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PrintJob binds an uploaded document to a payment request and a target
// printer. It is the unit the authorization gate protects: a job reaches
// PRINTED only through an approved payment, and a payment id never
// authorizes more than one successful dispatch.
type PrintJob struct {
	ID           uuid.UUID
	FileName     string
	StoragePath  string
	PageCount    int
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	PaymentID    string
	PrinterName  string
	Status       JobStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PrintedAt    *time.Time
}

// NewPrintJob creates a print job for a freshly stored upload
func NewPrintJob(fileName, storagePath string) (*PrintJob, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "File name cannot be empty")
	}
	if storagePath == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Storage path cannot be empty")
	}

	now := time.Now()
	return &PrintJob{
		ID:          uuid.New(),
		FileName:    fileName,
		StoragePath: storagePath,
		Status:      JobStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewQuotedJob creates a job directly in the PRICED state from an existing
// quote. Used when payment is requested for a document priced in an earlier
// request; the file itself arrives again at dispatch time.
func NewQuotedJob(quote Quote) *PrintJob {
	now := time.Now()
	return &PrintJob{
		ID:         uuid.New(),
		PageCount:  quote.PageCount,
		UnitPrice:  quote.UnitPrice,
		TotalPrice: quote.TotalPrice,
		Status:     JobStatusPriced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MarkPriced records the page count and derived price. Both are immutable
// after this transition.
func (j *PrintJob) MarkPriced(quote Quote) error {
	if err := j.transition(JobStatusPriced); err != nil {
		return err
	}
	j.PageCount = quote.PageCount
	j.UnitPrice = quote.UnitPrice
	j.TotalPrice = quote.TotalPrice
	return nil
}

// SelectPrinter sets the target printer for dispatch
func (j *PrintJob) SelectPrinter(printerName string) error {
	if printerName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Printer name cannot be empty")
	}
	j.PrinterName = printerName
	j.UpdatedAt = time.Now()
	return nil
}

// AttachDocument records the stored upload that will be dispatched
func (j *PrintJob) AttachDocument(fileName, storagePath string) error {
	if fileName == "" || storagePath == "" {
		return shared.NewDomainError("INVALID_INPUT", "File name and storage path cannot be empty")
	}
	j.FileName = fileName
	j.StoragePath = storagePath
	j.UpdatedAt = time.Now()
	return nil
}

// RequestPayment binds the provider-assigned payment id to the job
func (j *PrintJob) RequestPayment(paymentID string) error {
	if paymentID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment ID cannot be empty")
	}
	if err := j.transition(JobStatusPaymentRequested); err != nil {
		return err
	}
	j.PaymentID = paymentID
	return nil
}

// AwaitPayment marks the job as waiting for the payer once the provider
// returned a usable QR payload
func (j *PrintJob) AwaitPayment() error {
	return j.transition(JobStatusPaymentPending)
}

// ApprovePayment records that a live status query returned approved
func (j *PrintJob) ApprovePayment() error {
	return j.transition(JobStatusPaymentApproved)
}

// RejectPayment moves the job to the terminal REJECTED state. Reachable from
// any non-terminal state: a payment can be refused while pending, or the
// re-check at dispatch time can find the approval gone.
func (j *PrintJob) RejectPayment(reason string) error {
	if err := j.transition(JobStatusRejected); err != nil {
		return err
	}
	j.ErrorMessage = reason
	return nil
}

// MarkPrinted records a successful dispatch. Only valid from
// PAYMENT_APPROVED with both the document and the printer bound; approval
// itself is only reachable through a live approved status.
func (j *PrintJob) MarkPrinted() error {
	if j.StoragePath == "" || j.PrinterName == "" {
		return shared.NewDomainError("INVALID_STATE", "File and printer must be selected before printing")
	}
	if err := j.transition(JobStatusPrinted); err != nil {
		return err
	}
	now := time.Now()
	j.PrintedAt = &now
	return nil
}

// Fail moves the job to the terminal FAILED state after an adapter failure
func (j *PrintJob) Fail(errorMessage string) error {
	if err := j.transition(JobStatusFailed); err != nil {
		return err
	}
	j.ErrorMessage = errorMessage
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

func (j *PrintJob) transition(target JobStatus) error {
	if !j.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot transition from "+j.Status.String()+" to "+target.String())
	}
	j.Status = target
	j.UpdatedAt = time.Now()
	return nil
}
