package handler

import (
	"net/http"
	"time"

	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type paymentStatusRequest struct {
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
}

// change builds the status change, stamping paidAt for manual payments
func (r paymentStatusRequest) change(source string) service.StatusChange {
	change := service.StatusChange{
		Status: model.PaymentStatus(r.Status),
		Method: r.PaymentMethod,
		Source: source,
	}
	if change.Status == model.PaymentStatusPaid {
		now := time.Now()
		change.PaidAt = &now
		if change.Method == "" {
			change.Method = "CASH"
		}
	}
	return change
}

// DashboardOrders lists the signed-in merchant's orders
func DashboardOrders(c echo.Context) error {
	merchantID, _ := middleware.GetMerchantIDFromContext(c)

	status := model.OrderStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return badRequest(c, "invalid status")
	}

	orders, pagination, err := orderService().List(c.Request().Context(), service.OrderFilter{
		MerchantID: merchantID,
		Status:     status,
	}, pageFromQuery(c))
	if err != nil {
		return handleError(c, err, "List merchant orders")
	}
	return paginated(c, orders, pagination)
}

// DashboardUpdateOrderStatus moves one of the signed-in merchant's orders
func DashboardUpdateOrderStatus(c echo.Context) error {
	merchantID, _ := middleware.GetMerchantIDFromContext(c)
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update order status")
	}
	return updateOrderStatus(c, id, service.Actor{Role: service.ActorMerchant, MerchantID: merchantID})
}

// DashboardUpdatePayment records a manual payment outcome for one of the merchant's orders
func DashboardUpdatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	merchantID, _ := middleware.GetMerchantIDFromContext(c)
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update order payment")
	}

	var req paymentStatusRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse payment status request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	payment, err := paymentService().SetOrderPaymentStatus(c.Request().Context(), merchantID, id,
		req.change(service.PaymentSourceMerchant))
	if err != nil {
		return handleError(c, err, "Update order payment")
	}
	return success(c, http.StatusOK, payment)
}

// DashboardStats returns the signed-in merchant's dashboard figures
func DashboardStats(c echo.Context) error {
	merchantID, _ := middleware.GetMerchantIDFromContext(c)

	stats, err := statsService().ForMerchant(c.Request().Context(), merchantID)
	if err != nil {
		return handleError(c, err, "Merchant stats")
	}
	return success(c, http.StatusOK, stats)
}
