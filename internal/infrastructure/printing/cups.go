package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goipp "github.com/OpenPrinting/goipp"
	"go.uber.org/zap"

	"github.com/printpay/backend/internal/domain/printing"
)

const pdfDocumentFormat = "application/pdf"

// CUPSConfig holds the connection settings for the CUPS server
type CUPSConfig struct {
	Host           string
	Port           int
	UseTLS         bool
	RequestTimeout time.Duration
}

// CUPSClient talks IPP to a CUPS server. It implements both the printer
// directory (CUPS-Get-Printers) and the print dispatcher (Print-Job).
type CUPSClient struct {
	config     CUPSConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCUPSClient creates a CUPS client for the configured server
func NewCUPSClient(config CUPSConfig, logger *zap.Logger) *CUPSClient {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 631
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CUPSClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: logger,
	}
}

// List returns the printers known to the CUPS server. The descriptors are
// read fresh on every call and never cached.
func (c *CUPSClient) List(ctx context.Context) ([]printing.PrinterDescriptor, error) {
	req := c.newRequest(goipp.OpCupsGetPrinters)
	req.Operation.Add(goipp.MakeAttr("requested-attributes", goipp.TagKeyword,
		goipp.String("printer-name"), goipp.String("printer-info")))

	resp, err := c.send(ctx, "/", req, nil)
	if err != nil {
		return nil, fmt.Errorf("cups: printer listing failed: %w", err)
	}
	if err := checkIPPStatus(resp); err != nil {
		// CUPS answers Not-Found when no destination exists at all
		if goipp.Status(resp.Code) == goipp.StatusErrorNotFound {
			return []printing.PrinterDescriptor{}, nil
		}
		return nil, fmt.Errorf("cups: printer listing failed: %w", err)
	}

	var printers []printing.PrinterDescriptor
	for _, group := range resp.Groups {
		if group.Tag != goipp.TagPrinterGroup {
			continue
		}
		name := findAttr(group.Attrs, "printer-name")
		if name == "" {
			continue
		}
		displayName := findAttr(group.Attrs, "printer-info")
		if displayName == "" {
			displayName = name
		}
		printers = append(printers, printing.PrinterDescriptor{
			Name:        name,
			DisplayName: displayName,
		})
	}
	if printers == nil {
		printers = []printing.PrinterDescriptor{}
	}
	return printers, nil
}

// Print submits the document to the named printer with a single Print-Job
// operation
func (c *CUPSClient) Print(ctx context.Context, req printing.DispatchRequest) error {
	if req.PrinterName == "" {
		return errors.New("cups: printer name is required")
	}

	f, err := os.Open(req.DocumentPath)
	if err != nil {
		return fmt.Errorf("cups: cannot open document: %w", err)
	}
	defer f.Close()

	jobName := strings.TrimSpace(req.JobName)
	if jobName == "" {
		jobName = filepath.Base(req.DocumentPath)
	}

	msg := c.newRequest(goipp.OpPrintJob)
	msg.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI,
		goipp.String(c.printerURI(req.PrinterName))))
	msg.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName,
		goipp.String("print-backend")))
	msg.Operation.Add(goipp.MakeAttribute("job-name", goipp.TagName,
		goipp.String(jobName)))
	msg.Operation.Add(goipp.MakeAttribute("document-format", goipp.TagMimeType,
		goipp.String(pdfDocumentFormat)))

	resp, err := c.send(ctx, "/printers/"+url.PathEscape(req.PrinterName), msg, f)
	if err != nil {
		return fmt.Errorf("cups: print dispatch failed: %w", err)
	}
	if err := checkIPPStatus(resp); err != nil {
		return fmt.Errorf("cups: print dispatch failed: %w", err)
	}

	c.logger.Info("document dispatched",
		zap.String("printer", req.PrinterName),
		zap.String("job_name", jobName))
	return nil
}

func (c *CUPSClient) newRequest(op goipp.Op) *goipp.Message {
	req := goipp.NewRequest(goipp.DefaultVersion, op, uint32(time.Now().UnixNano()))
	req.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	req.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en-US")))
	return req
}

func (c *CUPSClient) printerURI(name string) string {
	return "ipp://localhost/printers/" + url.PathEscape(name)
}

func (c *CUPSClient) serverURL(path string) string {
	scheme := "http"
	if c.config.UseTLS {
		scheme = "https"
	}
	return scheme + "://" + c.config.Host + ":" + strconv.Itoa(c.config.Port) + path
}

// send posts the IPP message, with the document appended when data is not
// nil, and decodes the IPP response
func (c *CUPSClient) send(ctx context.Context, path string, msg *goipp.Message, data io.Reader) (*goipp.Message, error) {
	payload, err := msg.EncodeBytes()
	if err != nil {
		return nil, err
	}
	body := io.Reader(bytes.NewReader(payload))
	if data != nil {
		body = io.MultiReader(bytes.NewReader(payload), data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL(path), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", goipp.ContentType)
	httpReq.Header.Set("Accept", goipp.ContentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, errors.New(resp.Status)
	}

	out := &goipp.Message{}
	if err := out.Decode(resp.Body); err != nil {
		return nil, err
	}
	return out, nil
}

func checkIPPStatus(resp *goipp.Message) error {
	if resp == nil {
		return errors.New("empty ipp response")
	}
	status := goipp.Status(resp.Code)
	if status > goipp.StatusOkConflicting {
		return fmt.Errorf("%s", status)
	}
	return nil
}

func findAttr(attrs goipp.Attributes, name string) string {
	for _, attr := range attrs {
		if attr.Name != name || len(attr.Values) == 0 {
			continue
		}
		return strings.TrimSpace(attr.Values[0].V.String())
	}
	return ""
}
