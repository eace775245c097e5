package handler

import (
	"net/http"

	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreatePayments opens one unpaid payment per order
func CreatePayments(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		OrderIDs []uint `json:"orderIds"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse payment request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	payments, err := paymentService().CreateForOrders(c.Request().Context(), req.OrderIDs)
	if err != nil {
		return handleError(c, err, "Create payments")
	}
	return success(c, http.StatusCreated, payments)
}

// CreateInvoice opens one hosted invoice covering several pending orders
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.InvoiceInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse invoice request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	payment, err := paymentService().CreateInvoice(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err, "Create invoice")
	}
	return success(c, http.StatusCreated, payment)
}

// GetPayment returns a payment with the orders it covers
func GetPayment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Get payment")
	}

	payment, err := paymentService().Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Get payment")
	}
	return success(c, http.StatusOK, payment)
}
