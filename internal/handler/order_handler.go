package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/pkg/whatsapp"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type merchantOrderRequest struct {
	Items []service.OrderItemInput `json:"items"`
	Notes string                   `json:"notes"`
}

type batchOrderRequest struct {
	SessionID     string                          `json:"sessionId"`
	CustomerName  string                          `json:"customerName"`
	CustomerPhone string                          `json:"customerPhone"`
	Notes         string                          `json:"notes"`
	Orders        map[string]merchantOrderRequest `json:"orders"`
}

// OrderDetail is an order with its payments and a link to chat with the merchant
type OrderDetail struct {
	*model.Order
	Payments    []model.OrderPayment `json:"payments"`
	WhatsAppURL string               `json:"whatsappUrl,omitempty"`
}

type orderStatusResponse struct {
	ID        uint              `json:"id"`
	Status    model.OrderStatus `json:"status"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// CreateOrder places one order for one merchant
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateOrderInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse order request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	order, err := orderService().Create(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err, "Create order")
	}
	return success(c, http.StatusCreated, order)
}

// CreateBatchOrders places one order per merchant in a single transaction
func CreateBatchOrders(c echo.Context) error {
	log := logger.FromContext(c)

	var req batchOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse batch order request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	in := service.BatchOrderInput{
		SessionID:     req.SessionID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	}
	for key, group := range req.Orders {
		merchantID, err := strconv.ParseUint(key, 10, 64)
		if err != nil || merchantID == 0 {
			return badRequest(c, fmt.Sprintf("invalid merchant id %q", key))
		}
		in.Orders = append(in.Orders, service.MerchantOrderInput{
			MerchantID: uint(merchantID),
			Items:      group.Items,
			Notes:      group.Notes,
		})
	}

	result, err := orderService().CreateBatch(c.Request().Context(), in)
	if err != nil {
		return handleError(c, err, "Create batch orders")
	}
	return success(c, http.StatusCreated, result)
}

// GetOrder returns an order with items, merchant, payments and a WhatsApp link
func GetOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Get order")
	}

	ctx := c.Request().Context()
	order, err := orderService().Get(ctx, id)
	if err != nil {
		return handleError(c, err, "Get order")
	}
	payments, err := paymentService().ForOrder(ctx, id)
	if err != nil {
		return handleError(c, err, "Get order")
	}

	detail := OrderDetail{Order: order, Payments: payments}
	if order.Merchant != nil {
		message := fmt.Sprintf("Hello %s, I would like to ask about order #%d", order.Merchant.Name, order.ID)
		detail.WhatsAppURL = whatsapp.ChatURL(order.Merchant.PhoneNumber, message)
	}
	return success(c, http.StatusOK, detail)
}

// CancelOrder lets the buyer cancel an order that was not accepted yet
func CancelOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Cancel order")
	}

	order, err := orderService().Cancel(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Cancel order")
	}
	return success(c, http.StatusOK, order)
}

// GetOrderStatus returns the current status of an order for polling
func GetOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Get order status")
	}

	order, err := orderService().Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Get order status")
	}
	return success(c, http.StatusOK, orderStatusResponse{ID: order.ID, Status: order.Status, UpdatedAt: order.UpdatedAt})
}

// UpdateOrderStatus sets the status of an order for its merchant or an admin
func UpdateOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update order status")
	}
	return updateOrderStatus(c, id, actorFromContext(c))
}

func updateOrderStatus(c echo.Context, orderID uint, actor service.Actor) error {
	log := logger.FromContext(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse status request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	order, err := orderService().UpdateStatus(c.Request().Context(), orderID, model.OrderStatus(req.Status), actor)
	if err != nil {
		return handleError(c, err, "Update order status")
	}
	return success(c, http.StatusOK, orderStatusResponse{ID: order.ID, Status: order.Status, UpdatedAt: order.UpdatedAt})
}

// actorFromContext describes the session that passed MerchantOrAdminAuth
func actorFromContext(c echo.Context) service.Actor {
	if middleware.GetRoleFromContext(c) == middleware.RoleAdmin {
		return service.Actor{Role: service.ActorAdmin}
	}
	merchantID, _ := middleware.GetMerchantIDFromContext(c)
	return service.Actor{Role: service.ActorMerchant, MerchantID: merchantID}
}
