package xendit

import (
	"crypto/subtle"
	"strings"
	"time"
)

// CallbackTokenHeader carries the shared secret on every Xendit callback
const CallbackTokenHeader = "x-callback-token"

// Invoice statuses reported by callbacks
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusSettled = "SETTLED"
	StatusExpired = "EXPIRED"
	StatusFailed  = "FAILED"
)

// InvoiceCallback is the body Xendit posts when an invoice changes state
type InvoiceCallback struct {
	ID                 string  `json:"id"`
	ExternalID         string  `json:"external_id"`
	UserID             string  `json:"user_id,omitempty"`
	Status             string  `json:"status"`
	Amount             float64 `json:"amount"`
	PaidAmount         float64 `json:"paid_amount,omitempty"`
	PayerEmail         string  `json:"payer_email,omitempty"`
	PaymentMethod      string  `json:"payment_method,omitempty"`
	PaymentChannel     string  `json:"payment_channel,omitempty"`
	BankCode           string  `json:"bank_code,omitempty"`
	PaidAt             string  `json:"paid_at,omitempty"`
	Currency           string  `json:"currency,omitempty"`
	PaymentDestination string  `json:"payment_destination,omitempty"`
}

// NormalizedStatus returns the upper-cased status
func (cb InvoiceCallback) NormalizedStatus() string {
	return strings.ToUpper(strings.TrimSpace(cb.Status))
}

// PaidTime parses paid_at, falling back to the given time
func (cb InvoiceCallback) PaidTime(fallback time.Time) time.Time {
	if cb.PaidAt == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, cb.PaidAt); err == nil {
		return t
	}
	return fallback
}

// Method returns the most specific payment method description available
func (cb InvoiceCallback) Method() string {
	switch {
	case cb.PaymentChannel != "" && cb.PaymentMethod != "":
		return cb.PaymentMethod + ":" + cb.PaymentChannel
	case cb.PaymentMethod != "":
		return cb.PaymentMethod
	default:
		return cb.PaymentChannel
	}
}

// VerifyCallbackToken compares the received token against the configured one in constant time
func VerifyCallbackToken(expected, received string) bool {
	if expected == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
