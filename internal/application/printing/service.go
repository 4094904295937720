package printing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "github.com/printpay/backend/internal/domain/printing"
	"github.com/printpay/backend/internal/domain/shared"
	"github.com/printpay/backend/internal/infrastructure/storage"
)

// PrintOrderService orchestrates the payment-gated print workflow: pricing
// an upload, issuing the Pix payment, answering status polls, and running
// the authorization gate that releases exactly one print per approved
// payment.
type PrintOrderService struct {
	pricePerPage decimal.Decimal
	payments     domain.PaymentService
	directory    domain.PrinterDirectory
	dispatcher   domain.PrintDispatcher
	counter      domain.PageCounter
	uploads      *storage.TempUploadStore
	ledger       *domain.DispatchLedger
	watcher      *PaymentWatcher // nil disables server-side watching
	watchCtx     context.Context
	logger       *zap.Logger

	mu   sync.Mutex
	jobs map[string]*domain.PrintJob // tracked by payment id until terminal
}

// NewPrintOrderService creates the service. watchCtx bounds the lifetime of
// spawned payment watchers; pass the process context so shutdown cancels
// them.
func NewPrintOrderService(
	pricePerPage decimal.Decimal,
	payments domain.PaymentService,
	directory domain.PrinterDirectory,
	dispatcher domain.PrintDispatcher,
	counter domain.PageCounter,
	uploads *storage.TempUploadStore,
	watcher *PaymentWatcher,
	watchCtx context.Context,
	logger *zap.Logger,
) *PrintOrderService {
	if watchCtx == nil {
		watchCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintOrderService{
		pricePerPage: pricePerPage,
		payments:     payments,
		directory:    directory,
		dispatcher:   dispatcher,
		counter:      counter,
		uploads:      uploads,
		ledger:       domain.NewDispatchLedger(),
		watcher:      watcher,
		watchCtx:     watchCtx,
		logger:       logger,
		jobs:         make(map[string]*domain.PrintJob),
	}
}

// PricePerPage returns the configured per-page rate
func (s *PrintOrderService) PricePerPage() PriceResponse {
	return PriceResponse{PricePerPage: s.pricePerPage.InexactFloat64()}
}

// ListPrinters returns the printers currently known to the directory. A
// directory failure degrades to an empty list; the workflow never dies on
// a listing.
func (s *PrintOrderService) ListPrinters(ctx context.Context) []PrinterResponse {
	printers, err := s.directory.List(ctx)
	if err != nil {
		s.logger.Error("printer directory unavailable", zap.Error(err))
		return []PrinterResponse{}
	}
	return toPrinterResponses(printers)
}

// CountPages stores the upload, counts its pages and prices it. The
// temporary file is gone by the time this returns, on every path.
func (s *PrintOrderService) CountPages(ctx context.Context, fileName string, r io.Reader) (*QuoteResponse, error) {
	var out *QuoteResponse
	err := s.uploads.WithUpload(fileName, r, func(up *storage.StoredUpload) error {
		job, err := domain.NewPrintJob(up.Name, up.Path)
		if err != nil {
			return err
		}

		pages, err := s.counter.Count(ctx, up.Path)
		if err != nil {
			_ = job.Fail(err.Error())
			return fmt.Errorf("page counting failed: %w", err)
		}

		quote, err := domain.NewQuote(pages, s.pricePerPage)
		if err != nil {
			_ = job.Fail(err.Error())
			return err
		}
		if err := job.MarkPriced(quote); err != nil {
			return err
		}

		s.logger.Info("document priced",
			zap.String("job_id", job.ID.String()),
			zap.String("file", up.Name),
			zap.Int("pages", pages),
			zap.String("total", quote.TotalPrice.StringFixed(2)))

		out = &QuoteResponse{
			PageCount:    pages,
			TotalPrice:   quote.TotalPrice.InexactFloat64(),
			PricePerPage: s.pricePerPage.InexactFloat64(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePayment prices the page count and issues a Pix payment for the
// total. The returned QR payload is what the payer scans.
func (s *PrintOrderService) CreatePayment(ctx context.Context, pageCount int) (*PaymentResponse, error) {
	quote, err := domain.NewQuote(pageCount, s.pricePerPage)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.CreatePayment(ctx, quote.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("payment issuance failed: %w", err)
	}

	job := domain.NewQuotedJob(quote)
	if err := job.RequestPayment(payment.ID); err != nil {
		return nil, err
	}
	// The adapter guarantees a QR payload on success
	if err := job.AwaitPayment(); err != nil {
		return nil, err
	}
	s.track(payment.ID, job)

	if s.watcher != nil {
		go s.watcher.Watch(s.watchCtx, payment.ID, func(status domain.PaymentStatus) {
			s.observeStatus(payment.ID, status)
		})
	}

	return &PaymentResponse{
		ID:           payment.ID,
		QRCode:       payment.QRCode,
		QRCodeBase64: payment.QRCodeBase64,
		Status:       payment.Status.String(),
	}, nil
}

// PaymentStatus queries the provider for the live status of the payment
func (s *PrintOrderService) PaymentStatus(ctx context.Context, paymentID string) (*PaymentStatusResponse, error) {
	if paymentID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Pagamento não informado")
	}
	status, err := s.payments.PaymentStatus(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment status query failed: %w", err)
	}
	s.observeStatus(paymentID, status)
	return &PaymentStatusResponse{Status: status.String()}, nil
}

// Print runs the authorization gate and dispatches the document. The gate
// queries the provider immediately before dispatch; nothing the client
// claimed earlier is trusted. The uploaded file is released on every exit
// path, including printer faults.
func (s *PrintOrderService) Print(ctx context.Context, fileName string, r io.Reader, printerName, paymentID string) error {
	if printerName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Impressora não informada")
	}
	if paymentID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Pagamento não informado")
	}

	return s.uploads.WithUpload(fileName, r, func(up *storage.StoredUpload) error {
		// Fresh query, the single authority on whether this job may print
		status, err := s.payments.PaymentStatus(ctx, paymentID)
		if err != nil {
			s.failJob(paymentID, err.Error())
			return fmt.Errorf("payment status query failed: %w", err)
		}
		if !status.IsApproved() {
			s.logger.Warn("print refused, payment not approved",
				zap.String("payment_id", paymentID),
				zap.String("status", status.String()))
			// A still-pending payment may yet approve; only a terminal
			// refusal ends the tracked job
			if status.IsTerminal() {
				s.rejectJob(paymentID, "payment status "+status.String())
			}
			return shared.ErrPaymentNotApproved
		}

		// Single flight per payment id: a consumed or in-flight id never
		// dispatches again
		if err := s.ledger.Reserve(paymentID); err != nil {
			s.logger.Warn("print refused, payment already consumed",
				zap.String("payment_id", paymentID))
			return err
		}

		s.approveJob(paymentID, up.Name, up.Path, printerName)

		dispatchErr := s.dispatcher.Print(ctx, domain.DispatchRequest{
			PrinterName:  printerName,
			DocumentPath: up.Path,
			JobName:      up.Name,
		})
		if dispatchErr != nil {
			s.ledger.Abort(paymentID)
			s.failJob(paymentID, dispatchErr.Error())
			return fmt.Errorf("print dispatch failed: %w", dispatchErr)
		}

		s.ledger.Commit(paymentID)
		s.finishJob(paymentID)

		s.logger.Info("document sent to printer",
			zap.String("payment_id", paymentID),
			zap.String("printer", printerName),
			zap.String("file", up.Name))
		return nil
	})
}

// track registers the job under its payment id until it reaches a terminal
// state
func (s *PrintOrderService) track(paymentID string, job *domain.PrintJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[paymentID] = job
}

// observeStatus advances a tracked job from a provider-reported status.
// Untracked payments (issued before a restart) are ignored; the gate does
// not depend on tracking.
func (s *PrintOrderService) observeStatus(paymentID string, status domain.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[paymentID]
	if !ok {
		return
	}

	switch {
	case status.IsApproved():
		if job.Status == domain.JobStatusPaymentPending {
			_ = job.ApprovePayment()
		}
	case status.IsTerminal():
		_ = job.RejectPayment("provider status " + status.String())
		delete(s.jobs, paymentID)
	}
}

func (s *PrintOrderService) approveJob(paymentID, fileName, storagePath, printerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[paymentID]
	if !ok {
		return
	}
	_ = job.AttachDocument(fileName, storagePath)
	_ = job.SelectPrinter(printerName)
	if job.Status == domain.JobStatusPaymentPending {
		_ = job.ApprovePayment()
	}
}

func (s *PrintOrderService) finishJob(paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[paymentID]; ok {
		_ = job.MarkPrinted()
		delete(s.jobs, paymentID)
	}
}

func (s *PrintOrderService) rejectJob(paymentID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[paymentID]; ok {
		_ = job.RejectPayment(reason)
		delete(s.jobs, paymentID)
	}
}

func (s *PrintOrderService) failJob(paymentID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[paymentID]; ok {
		_ = job.Fail(message)
		delete(s.jobs, paymentID)
	}
}
