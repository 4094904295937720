package payment

import "encoding/json"

// pixPaymentRequest is the body of POST /v1/payments for a Pix charge
type pixPaymentRequest struct {
	TransactionAmount json.Number `json:"transaction_amount"`
	PaymentMethodID   string      `json:"payment_method_id"`
	Payer             pixPayer    `json:"payer"`
	Description       string      `json:"description"`
}

type pixPayer struct {
	Email string `json:"email"`
}

// pixPaymentResponse is the subset of the provider payment resource the
// workflow consumes
type pixPaymentResponse struct {
	ID                 json.Number         `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	PointOfInteraction *pointOfInteraction `json:"point_of_interaction"`
}

type pointOfInteraction struct {
	TransactionData transactionData `json:"transaction_data"`
}

type transactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

// apiError is the provider error envelope
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
