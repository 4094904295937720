package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printpay/backend/internal/domain/printing"
)

// Errors returned by the adapter. Handlers map both to a 500 with a generic
// message; the wrapped provider detail stays in the local log.
var (
	// ErrQRCodeUnavailable means the provider accepted the payment but the
	// response carried no usable QR payload. Treated as a hard issuance
	// failure, never retried here.
	ErrQRCodeUnavailable = fmt.Errorf("mercadopago: QR code missing from payment response")
	// ErrPaymentQueryFailed wraps transport or provider failures on status
	// queries
	ErrPaymentQueryFailed = fmt.Errorf("mercadopago: payment status query failed")
)

// MercadoPagoAdapter implements printing.PaymentService against the
// Mercado Pago Pix API
type MercadoPagoAdapter struct {
	config     *MercadoPagoConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMercadoPagoAdapter creates a new Mercado Pago adapter
func NewMercadoPagoAdapter(config *MercadoPagoConfig, logger *zap.Logger) (*MercadoPagoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MercadoPagoAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// CreatePayment issues a Pix payment for the given amount. A fresh
// idempotency key is generated per call so a retried request cannot charge
// the payer twice.
func (a *MercadoPagoAdapter) CreatePayment(ctx context.Context, amount decimal.Decimal) (*printing.PaymentRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("mercadopago: payment amount must be positive, got %s", amount)
	}

	idempotencyKey := uuid.NewString()

	body := pixPaymentRequest{
		TransactionAmount: json.Number(amount.StringFixed(2)),
		PaymentMethodID:   "pix",
		Payer:             pixPayer{Email: a.config.PayerEmail},
		Description:       a.config.Description,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", idempotencyKey)

	respBody, err := a.do(req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: payment creation failed: %w", err)
	}

	var paymentResp pixPaymentResponse
	if err := json.Unmarshal(respBody, &paymentResp); err != nil {
		return nil, fmt.Errorf("mercadopago: failed to parse payment response: %w", err)
	}

	if paymentResp.PointOfInteraction == nil ||
		paymentResp.PointOfInteraction.TransactionData.QRCode == "" {
		return nil, ErrQRCodeUnavailable
	}

	a.logger.Info("pix payment created",
		zap.String("payment_id", paymentResp.ID.String()),
		zap.String("status", paymentResp.Status),
		zap.String("amount", amount.StringFixed(2)))

	return &printing.PaymentRequest{
		ID:             paymentResp.ID.String(),
		Amount:         amount,
		Status:         printing.PaymentStatus(paymentResp.Status),
		QRCode:         paymentResp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64:   paymentResp.PointOfInteraction.TransactionData.QRCodeBase64,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// PaymentStatus queries the provider for the live status of a payment.
// There is no caching: this answer is the sole authority on whether the
// payment is approved.
func (a *MercadoPagoAdapter) PaymentStatus(ctx context.Context, paymentID string) (printing.PaymentStatus, error) {
	if paymentID == "" {
		return "", fmt.Errorf("%w: empty payment id", ErrPaymentQueryFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentQueryFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)

	respBody, err := a.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentQueryFailed, err)
	}

	var paymentResp pixPaymentResponse
	if err := json.Unmarshal(respBody, &paymentResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentQueryFailed, err)
	}
	if paymentResp.Status == "" {
		return "", fmt.Errorf("%w: response carried no status", ErrPaymentQueryFailed)
	}

	return printing.PaymentStatus(paymentResp.Status), nil
}

// do executes the request and returns the body on a 2xx response
func (a *MercadoPagoAdapter) do(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var provErr apiError
		if json.Unmarshal(respBody, &provErr) == nil && provErr.Message != "" {
			a.logger.Error("provider rejected request",
				zap.Int("http_status", resp.StatusCode),
				zap.String("provider_message", provErr.Message))
			return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, provErr.Message)
		}
		return nil, fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	return respBody, nil
}
