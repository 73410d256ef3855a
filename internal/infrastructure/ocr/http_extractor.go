// Package ocr provides the HTTP adapter for the external text
// extraction collaborator used during invoice ingestion.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	invoiceapp "github.com/procura/backend/internal/application/invoice"
	infraconfig "github.com/procura/backend/internal/infrastructure/config"
)

// maxOcrResponseSize limits the response body size to prevent memory exhaustion
const maxOcrResponseSize = 1 * 1024 * 1024 // 1MB max response

// HTTPExtractor calls an external OCR service over HTTP. The document
// is shipped base64-encoded in a JSON envelope; the service answers
// with the extracted invoice fields and a confidence score
type HTTPExtractor struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPExtractor creates an extractor against the configured OCR endpoint
func NewHTTPExtractor(cfg *infraconfig.OcrConfig) *HTTPExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPExtractor{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// extractRequest is the envelope sent to the OCR service
type extractRequest struct {
	MimeType string `json:"mime_type"`
	Document []byte `json:"document"` // base64 via encoding/json
}

// extractResponse is the field set the OCR service answers with
type extractResponse struct {
	InvoiceNumber string  `json:"invoice_number"`
	TotalCents    int64   `json:"total_cents"`
	Currency      string  `json:"currency"`
	Confidence    float64 `json:"confidence"`
}

// Extract runs OCR over one document and returns the extracted fields.
// A non-2xx answer or an unparsable body is an error; field-level
// quality is the caller's concern via the confidence score
func (e *HTTPExtractor) Extract(ctx context.Context, mimeType string, document []byte) (*invoiceapp.ExtractedInvoice, error) {
	if len(document) == 0 {
		return nil, fmt.Errorf("ocr: document is empty")
	}

	bodyBytes, err := json.Marshal(extractRequest{
		MimeType: mimeType,
		Document: document,
	})
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOcrResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ocr: HTTP %d", resp.StatusCode)
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ocr: failed to parse response: %w", err)
	}

	return &invoiceapp.ExtractedInvoice{
		InvoiceNumber: result.InvoiceNumber,
		TotalCents:    result.TotalCents,
		Currency:      result.Currency,
		Confidence:    result.Confidence,
	}, nil
}

// Ensure HTTPExtractor implements the extraction interface
var _ invoiceapp.TextExtractor = (*HTTPExtractor)(nil)
