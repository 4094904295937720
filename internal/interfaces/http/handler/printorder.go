package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appprinting "github.com/printpay/backend/internal/application/printing"
	"github.com/printpay/backend/internal/domain/shared"
	"github.com/printpay/backend/internal/infrastructure/logger"
	"github.com/printpay/backend/internal/interfaces/http/dto"
)

// PrintOrderHandler exposes the payment-gated print workflow over HTTP
type PrintOrderHandler struct {
	service *appprinting.PrintOrderService
}

// NewPrintOrderHandler creates a new print order handler
func NewPrintOrderHandler(service *appprinting.PrintOrderService) *PrintOrderHandler {
	return &PrintOrderHandler{service: service}
}

// PricePerPage returns the configured per-page rate
// GET /price-per-page
func (h *PrintOrderHandler) PricePerPage(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.PricePerPage())
}

// ListPrinters returns the printers currently available. Always 200: a
// directory failure degrades to an empty list so the kiosk UI keeps working.
// GET /printers
func (h *PrintOrderHandler) ListPrinters(c *gin.Context) {
	printers := h.service.ListPrinters(c.Request.Context())
	c.JSON(http.StatusOK, dto.PrintersResponse{Printers: printers})
}

// CountPages receives a PDF upload and returns its page count and price
// POST /count-pages (multipart, field "pdf")
func (h *PrintOrderHandler) CountPages(c *gin.Context) {
	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Nenhum arquivo enviado"))
		return
	}
	defer file.Close()

	quote, err := h.service.CountPages(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.fail(c, err, "Erro ao processar o arquivo PDF")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CreatePayment issues a Pix payment for the given page count and returns
// the QR payload the payer scans
// POST /create-payment
func (h *PrintOrderHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Requisição inválida"))
		return
	}

	payment, err := h.service.CreatePayment(c.Request.Context(), req.PageCount)
	if err != nil {
		h.fail(c, err, "Erro ao criar pagamento")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// PaymentStatus returns the live provider status of a payment
// GET /payment-status/:paymentId
func (h *PrintOrderHandler) PaymentStatus(c *gin.Context) {
	status, err := h.service.PaymentStatus(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		h.fail(c, err, "Erro ao verificar status do pagamento")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Print authorizes and dispatches a document. The payment is re-verified
// against the provider before anything reaches a printer.
// POST /print (multipart, fields "pdf", "printer", "paymentId")
func (h *PrintOrderHandler) Print(c *gin.Context) {
	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("Nenhum arquivo enviado"))
		return
	}
	defer file.Close()

	printerName := c.PostForm("printer")
	paymentID := c.PostForm("paymentId")

	err = h.service.Print(c.Request.Context(), header.Filename, file, printerName, paymentID)
	if err != nil {
		h.fail(c, err, "Erro ao imprimir")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Documento enviado para impressão!"})
}

// fail maps a service error to the flat error body. Domain refusals carry
// their own message at 400; everything else gets the route's generic
// message at 500 so provider details never leak to the kiosk.
func (h *PrintOrderHandler) fail(c *gin.Context, err error, fallback string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(domainErr.Message))
		return
	}

	logger.GetGinLogger(c).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(fallback))
}
