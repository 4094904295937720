package dto

import appdto "github.com/printpay/backend/internal/application/printing"

// ErrorResponse is the flat error body the kiosk frontend consumes
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a completed action
type MessageResponse struct {
	Message string `json:"message"`
}

// PrintersResponse wraps the printer listing. Printers is never null: a
// directory failure surfaces as an empty list.
type PrintersResponse struct {
	Printers []appdto.PrinterResponse `json:"printers"`
}

// CreatePaymentRequest asks for a Pix payment covering pageCount pages
type CreatePaymentRequest struct {
	PageCount int `json:"pageCount"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}
