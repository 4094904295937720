package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appprinting "github.com/printpay/backend/internal/application/printing"
	domain "github.com/printpay/backend/internal/domain/printing"
	"github.com/printpay/backend/internal/infrastructure/config"
	"github.com/printpay/backend/internal/infrastructure/storage"
	"github.com/printpay/backend/internal/interfaces/http/router"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, amount decimal.Decimal) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}

func (m *MockPaymentService) PaymentStatus(ctx context.Context, paymentID string) (domain.PaymentStatus, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(domain.PaymentStatus), args.Error(1)
}

type MockPrinterDirectory struct {
	mock.Mock
}

func (m *MockPrinterDirectory) List(ctx context.Context) ([]domain.PrinterDescriptor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrinterDescriptor), args.Error(1)
}

type MockPrintDispatcher struct {
	mock.Mock
}

func (m *MockPrintDispatcher) Print(ctx context.Context, req domain.DispatchRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockPageCounter struct {
	mock.Mock
}

func (m *MockPageCounter) Count(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}

type testServer struct {
	payments   *MockPaymentService
	directory  *MockPrinterDirectory
	dispatcher *MockPrintDispatcher
	counter    *MockPageCounter
	engine     *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploads, err := storage.NewTempUploadStore(t.TempDir(), nil)
	require.NoError(t, err)

	ts := &testServer{
		payments:   &MockPaymentService{},
		directory:  &MockPrinterDirectory{},
		dispatcher: &MockPrintDispatcher{},
		counter:    &MockPageCounter{},
	}

	service := appprinting.NewPrintOrderService(
		decimal.RequireFromString("0.50"),
		ts.payments,
		ts.directory,
		ts.dispatcher,
		ts.counter,
		uploads,
		nil,
		context.Background(),
		zap.NewNop(),
	)

	cfg := &config.Config{}
	cfg.App.Name = "print-backend-test"
	cfg.HTTP.MaxBodySize = 10 << 20

	ts.engine = router.New(cfg, service, zap.NewNop())
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func multipartPDF(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("pdf", "doc.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 test document"))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeJSON(t, w)["status"])
}

func TestGetPricePerPage(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/price-per-page", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.5, decodeJSON(t, w)["pricePerPage"])
}

func TestGetPrinters(t *testing.T) {
	ts := newTestServer(t)
	ts.directory.On("List", mock.Anything).Return([]domain.PrinterDescriptor{
		{Name: "HP_LaserJet", DisplayName: "HP LaserJet (office)"},
	}, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/printers", nil))
	require.Equal(t, http.StatusOK, w.Code)

	printers := decodeJSON(t, w)["printers"].([]any)
	require.Len(t, printers, 1)
	assert.Equal(t, "HP_LaserJet", printers[0].(map[string]any)["name"])
}

func TestGetPrintersDirectoryDownStill200(t *testing.T) {
	ts := newTestServer(t)
	ts.directory.On("List", mock.Anything).Return(nil, errors.New("cups unreachable"))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/printers", nil))
	require.Equal(t, http.StatusOK, w.Code)

	printers, ok := decodeJSON(t, w)["printers"].([]any)
	require.True(t, ok, "printers must be a JSON array, not null")
	assert.Empty(t, printers)
}

func TestCountPages(t *testing.T) {
	ts := newTestServer(t)
	ts.counter.On("Count", mock.Anything, mock.AnythingOfType("string")).Return(3, nil)

	body, contentType := multipartPDF(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/count-pages", body)
	req.Header.Set("Content-Type", contentType)

	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJSON(t, w)
	assert.Equal(t, float64(3), resp["pageCount"])
	assert.Equal(t, 1.5, resp["totalPrice"])
}

func TestCountPagesWithoutFile(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/count-pages", nil)
	w := ts.do(req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nenhum arquivo enviado", decodeJSON(t, w)["error"])
}

func TestCountPagesCorruptFile(t *testing.T) {
	ts := newTestServer(t)
	ts.counter.On("Count", mock.Anything, mock.AnythingOfType("string")).
		Return(0, errors.New("pdf: malformed xref"))

	body, contentType := multipartPDF(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/count-pages", body)
	req.Header.Set("Content-Type", contentType)

	w := ts.do(req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Erro ao processar o arquivo PDF", decodeJSON(t, w)["error"])
}

func TestCreatePayment(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(&domain.PaymentRequest{
		ID:           "pay-1",
		Status:       domain.PaymentStatusPending,
		QRCode:       "00020126QR",
		QRCodeBase64: "UVI=",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/create-payment",
		bytes.NewBufferString(`{"pageCount": 4}`))
	req.Header.Set("Content-Type", "application/json")

	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJSON(t, w)
	assert.Equal(t, "pay-1", resp["id"])
	assert.Equal(t, "00020126QR", resp["qr_code"])
	assert.Equal(t, "pending", resp["status"])
}

func TestCreatePaymentProviderDown(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("CreatePayment", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider returned 500"))

	req := httptest.NewRequest(http.MethodPost, "/create-payment",
		bytes.NewBufferString(`{"pageCount": 4}`))
	req.Header.Set("Content-Type", "application/json")

	w := ts.do(req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Erro ao criar pagamento", decodeJSON(t, w)["error"])
}

func TestCreatePaymentInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/create-payment",
		bytes.NewBufferString(`{"pageCount": "four"}`))
	req.Header.Set("Content-Type", "application/json")

	w := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ts.payments.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
}

func TestPaymentStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("PaymentStatus", mock.Anything, "pay-42").
		Return(domain.PaymentStatusApproved, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/payment-status/pay-42", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", decodeJSON(t, w)["status"])
}

func TestPaymentStatusProviderDown(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("PaymentStatus", mock.Anything, "pay-42").
		Return(domain.PaymentStatus(""), errors.New("provider timeout"))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/payment-status/pay-42", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Erro ao verificar status do pagamento", decodeJSON(t, w)["error"])
}

func TestPrintApproved(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("PaymentStatus", mock.Anything, "pay-1").
		Return(domain.PaymentStatusApproved, nil)
	ts.dispatcher.On("Print", mock.Anything, mock.MatchedBy(func(req domain.DispatchRequest) bool {
		return req.PrinterName == "HP_LaserJet"
	})).Return(nil)

	body, contentType := multipartPDF(t, map[string]string{
		"printer":   "HP_LaserJet",
		"paymentId": "pay-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/print", body)
	req.Header.Set("Content-Type", contentType)

	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Documento enviado para impressão!", decodeJSON(t, w)["message"])
	ts.dispatcher.AssertExpectations(t)
}

func TestPrintPendingPaymentRefused(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("PaymentStatus", mock.Anything, "pay-1").
		Return(domain.PaymentStatusPending, nil)

	body, contentType := multipartPDF(t, map[string]string{
		"printer":   "HP_LaserJet",
		"paymentId": "pay-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/print", body)
	req.Header.Set("Content-Type", contentType)

	w := ts.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Pagamento não aprovado", decodeJSON(t, w)["error"])
	ts.dispatcher.AssertNotCalled(t, "Print", mock.Anything, mock.Anything)
}

func TestPrintSamePaymentTwice(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("PaymentStatus", mock.Anything, "pay-1").
		Return(domain.PaymentStatusApproved, nil)
	ts.dispatcher.On("Print", mock.Anything, mock.Anything).Return(nil)

	send := func() *httptest.ResponseRecorder {
		body, contentType := multipartPDF(t, map[string]string{
			"printer":   "HP_LaserJet",
			"paymentId": "pay-1",
		})
		req := httptest.NewRequest(http.MethodPost, "/print", body)
		req.Header.Set("Content-Type", contentType)
		return ts.do(req)
	}

	require.Equal(t, http.StatusOK, send().Code)

	w := send()
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Pagamento já utilizado em outra impressão", decodeJSON(t, w)["error"])
	ts.dispatcher.AssertNumberOfCalls(t, "Print", 1)
}

func TestPrintWithoutFile(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/print", nil)
	w := ts.do(req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nenhum arquivo enviado", decodeJSON(t, w)["error"])
}

func TestPrintPrinterFault(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("PaymentStatus", mock.Anything, "pay-1").
		Return(domain.PaymentStatusApproved, nil)
	ts.dispatcher.On("Print", mock.Anything, mock.Anything).
		Return(errors.New("printer jammed"))

	body, contentType := multipartPDF(t, map[string]string{
		"printer":   "HP_LaserJet",
		"paymentId": "pay-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/print", body)
	req.Header.Set("Content-Type", contentType)

	w := ts.do(req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Erro ao imprimir", decodeJSON(t, w)["error"])
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w = ts.do(req)
	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	uploads, err := storage.NewTempUploadStore(t.TempDir(), nil)
	require.NoError(t, err)

	service := appprinting.NewPrintOrderService(
		decimal.RequireFromString("0.50"),
		&MockPaymentService{}, &MockPrinterDirectory{}, &MockPrintDispatcher{}, &MockPageCounter{},
		uploads, nil, context.Background(), zap.NewNop(),
	)

	cfg := &config.Config{}
	cfg.HTTP.MaxBodySize = 10 << 20
	cfg.HTTP.CORSAllowOrigins = []string{"http://kiosk.local"}
	cfg.HTTP.CORSAllowMethods = []string{"GET", "POST"}
	cfg.HTTP.CORSAllowHeaders = []string{"Content-Type"}

	engine := router.New(cfg, service, zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/print", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://kiosk.local", w.Header().Get("Access-Control-Allow-Origin"))

	// Unknown origins get no CORS headers
	req = httptest.NewRequest(http.MethodOptions, "/print", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
