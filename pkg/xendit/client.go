package xendit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no API key has been provided
var ErrNotConfigured = errors.New("xendit client is not configured")

// Client represents a client for the Xendit invoice API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// InvoiceItem is a line shown on the hosted invoice page
type InvoiceItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// CreateInvoiceRequest represents the payload of POST /v2/invoices
type CreateInvoiceRequest struct {
	ExternalID         string        `json:"external_id"`
	Amount             int64         `json:"amount"`
	PayerEmail         string        `json:"payer_email,omitempty"`
	Description        string        `json:"description,omitempty"`
	InvoiceDuration    int64         `json:"invoice_duration,omitempty"`
	SuccessRedirectURL string        `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string        `json:"failure_redirect_url,omitempty"`
	Currency           string        `json:"currency,omitempty"`
	Items              []InvoiceItem `json:"items,omitempty"`
}

// Invoice represents the invoice returned by Xendit
type Invoice struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	InvoiceURL string    `json:"invoice_url"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// ErrorResponse represents a Xendit error response
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// APIError is returned when Xendit answers with a non-2xx status
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xendit: %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// NewClient creates a new Xendit client instance
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
	}
}

// Configured reports whether the client can talk to the API
func (c *Client) Configured() bool {
	return c != nil && c.APIKey != ""
}

// CreateInvoice creates a hosted invoice
func (c *Client) CreateInvoice(ctx context.Context, in CreateInvoiceRequest) (*Invoice, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if in.Currency == "" {
		in.Currency = "IDR"
	}

	c.Logger.Info("Creating invoice",
		zap.String("external_id", in.ExternalID),
		zap.Int64("amount", in.Amount))

	var invoice Invoice
	if err := c.do(ctx, http.MethodPost, "/v2/invoices", in, &invoice); err != nil {
		return nil, err
	}

	c.Logger.Info("Invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("status", invoice.Status))
	return &invoice, nil
}

// GetInvoice fetches an invoice by its Xendit ID
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var invoice Invoice
	if err := c.do(ctx, http.MethodGet, "/v2/invoices/"+invoiceID, nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		c.Logger.Error("Failed to create request", zap.Error(err))
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.getBasicAuth())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Xendit request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read response body", zap.Error(err))
		return err
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		_ = json.Unmarshal(respBody, &errorResp)
		c.Logger.Error("Xendit returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("error_code", errorResp.ErrorCode),
			zap.String("message", errorResp.Message))
		return &APIError{StatusCode: resp.StatusCode, ErrorCode: errorResp.ErrorCode, Message: errorResp.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.Logger.Error("Failed to parse response", zap.Error(err))
		return err
	}
	return nil
}

// Xendit authenticates with the secret key as the Basic-Auth username and an empty password
func (c *Client) getBasicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.APIKey + ":"))
}
