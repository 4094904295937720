package printing

import (
	domain "github.com/printpay/backend/internal/domain/printing"
)

// QuoteResponse is the result of pricing an uploaded document
type QuoteResponse struct {
	PageCount    int     `json:"pageCount"`
	TotalPrice   float64 `json:"totalPrice"`
	PricePerPage float64 `json:"pricePerPage"`
}

// PaymentResponse carries the issued Pix payment back to the client.
// Field names follow the provider payload the frontend already consumes.
type PaymentResponse struct {
	ID           string `json:"id"`
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	Status       string `json:"status"`
}

// PaymentStatusResponse is the live provider status of a payment
type PaymentStatusResponse struct {
	Status string `json:"status"`
}

// PrinterResponse describes one available printer
type PrinterResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// PriceResponse exposes the configured per-page rate
type PriceResponse struct {
	PricePerPage float64 `json:"pricePerPage"`
}

func toPrinterResponses(printers []domain.PrinterDescriptor) []PrinterResponse {
	out := make([]PrinterResponse, len(printers))
	for i, p := range printers {
		out[i] = PrinterResponse{Name: p.Name, DisplayName: p.DisplayName}
	}
	return out
}
