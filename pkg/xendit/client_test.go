package xendit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoice(t *testing.T) {
	var got CreateInvoiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/invoices", r.URL.Path)
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("sk_test:")), r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"inv-1","external_id":"payment-9","status":"PENDING","amount":30000,"invoice_url":"https://checkout.xendit.co/web/inv-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", nil)
	inv, err := c.CreateInvoice(context.Background(), CreateInvoiceRequest{ExternalID: "payment-9", Amount: 30000})
	require.NoError(t, err)

	assert.Equal(t, "IDR", got.Currency)
	assert.Equal(t, int64(30000), got.Amount)
	assert.Equal(t, "inv-1", inv.ID)
	assert.Equal(t, "https://checkout.xendit.co/web/inv-1", inv.InvoiceURL)
}

func TestCreateInvoiceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"API_VALIDATION_ERROR","message":"amount is required"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk_test", nil).CreateInvoice(context.Background(), CreateInvoiceRequest{ExternalID: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "API_VALIDATION_ERROR", apiErr.ErrorCode)
}

func TestCreateInvoiceNotConfigured(t *testing.T) {
	_, err := NewClient("http://unused", "", nil).CreateInvoice(context.Background(), CreateInvoiceRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}

func TestVerifyCallbackToken(t *testing.T) {
	assert.True(t, VerifyCallbackToken("tok", "tok"))
	assert.False(t, VerifyCallbackToken("tok", "other"))
	assert.False(t, VerifyCallbackToken("", ""))
	assert.False(t, VerifyCallbackToken("tok", ""))
}

func TestInvoiceCallbackHelpers(t *testing.T) {
	fallback := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cb := InvoiceCallback{Status: " paid ", PaymentMethod: "BANK_TRANSFER", PaymentChannel: "BCA", PaidAt: "2024-05-01T10:00:00Z"}
	assert.Equal(t, StatusPaid, cb.NormalizedStatus())
	assert.Equal(t, "BANK_TRANSFER:BCA", cb.Method())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), cb.PaidTime(fallback))

	cb = InvoiceCallback{PaymentChannel: "QRIS", PaidAt: "garbage"}
	assert.Equal(t, "QRIS", cb.Method())
	assert.Equal(t, fallback, cb.PaidTime(fallback))
}
