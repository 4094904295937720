package printing

// JobStatus represents the status of a print job as it moves through the
// payment-gated workflow
type JobStatus string

const (
	JobStatusUploaded         JobStatus = "UPLOADED"          // file stored, not yet priced
	JobStatusPriced           JobStatus = "PRICED"            // page count and price known
	JobStatusPaymentRequested JobStatus = "PAYMENT_REQUESTED" // payment issued at the provider
	JobStatusPaymentPending   JobStatus = "PAYMENT_PENDING"   // QR issued, waiting for the payer
	JobStatusPaymentApproved  JobStatus = "PAYMENT_APPROVED"  // provider reported approved
	JobStatusPrinted          JobStatus = "PRINTED"           // dispatched to the printer
	JobStatusRejected         JobStatus = "REJECTED"          // payment rejected or authorization refused
	JobStatusFailed           JobStatus = "FAILED"            // adapter failure on any step
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusUploaded, JobStatusPriced, JobStatusPaymentRequested,
		JobStatusPaymentPending, JobStatusPaymentApproved,
		JobStatusPrinted, JobStatusRejected, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusPrinted || s == JobStatusRejected || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status.
// Rejected and Failed are reachable from every non-terminal state.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == JobStatusRejected || target == JobStatusFailed {
		return true
	}
	switch s {
	case JobStatusUploaded:
		return target == JobStatusPriced
	case JobStatusPriced:
		return target == JobStatusPaymentRequested
	case JobStatusPaymentRequested:
		return target == JobStatusPaymentPending
	case JobStatusPaymentPending:
		return target == JobStatusPaymentApproved
	case JobStatusPaymentApproved:
		return target == JobStatusPrinted
	}
	return false
}

// PaymentStatus is the provider-reported status of a payment. It is only
// ever produced by querying the provider; the service never writes it locally.
type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusInProcess   PaymentStatus = "in_process"
	PaymentStatusApproved    PaymentStatus = "approved"
	PaymentStatusRejected    PaymentStatus = "rejected"
	PaymentStatusCancelled   PaymentStatus = "cancelled"
	PaymentStatusRefunded    PaymentStatus = "refunded"
	PaymentStatusChargedBack PaymentStatus = "charged_back"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsApproved returns true only for an explicit approved status. Anything
// else, including unknown provider statuses, never authorizes a print.
func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved
}

// IsTerminal returns true when the provider will not move the payment again
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled,
		PaymentStatusRefunded, PaymentStatusChargedBack:
		return true
	}
	return false
}
