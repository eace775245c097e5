package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/pkg/xendit"
	"foodcourt-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// XenditWebhook reconciles payments with Xendit invoice callbacks
func XenditWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	token := c.Request().Header.Get(xendit.CallbackTokenHeader)
	if !xendit.VerifyCallbackToken(opts.WebhookToken, token) {
		log.Warn("Rejected webhook with invalid callback token")
		prometheus.RecordWebhookEvent("unknown", "unauthorized")
		return fail(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid callback token")
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		prometheus.RecordWebhookEvent("unknown", "invalid")
		return badRequest(c, "Invalid request body")
	}
	var callback xendit.InvoiceCallback
	if err := json.Unmarshal(raw, &callback); err != nil {
		log.Warn("Failed to parse webhook body", zap.Error(err))
		prometheus.RecordWebhookEvent("unknown", "invalid")
		return badRequest(c, "Invalid request body")
	}

	status := callback.NormalizedStatus()
	outcome, err := paymentService().HandleInvoiceCallback(c.Request().Context(), callback, raw)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			prometheus.RecordWebhookEvent(status, "not_found")
		case errors.Is(err, service.ErrInvalidInput):
			prometheus.RecordWebhookEvent(status, "invalid")
		default:
			prometheus.RecordWebhookEvent(status, "error")
		}
		return handleError(c, err, "Handle invoice callback")
	}

	result := "ignored"
	if outcome.Applied {
		result = "applied"
	}
	prometheus.RecordWebhookEvent(status, result)
	return success(c, http.StatusOK, outcome)
}
