package handler

import (
	"net/http"

	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type tableRequest struct {
	TableNumber      *int `json:"table_number"`
	TableNumberCamel *int `json:"tableNumber"`
}

func (r tableRequest) value() *int {
	if r.TableNumber != nil {
		return r.TableNumber
	}
	return r.TableNumberCamel
}

// CreateSession starts an anonymous buyer session
func CreateSession(c echo.Context) error {
	log := logger.FromContext(c)

	var req tableRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse session request", zap.Error(err))
		return badRequest(c, "table_number must be a non-negative integer")
	}

	session, err := sessionService().Create(c.Request().Context(), req.value())
	if err != nil {
		return handleError(c, err, "Create session")
	}
	return success(c, http.StatusCreated, session)
}

// GetSession returns a buyer session
func GetSession(c echo.Context) error {
	session, err := sessionService().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err, "Get session")
	}
	return success(c, http.StatusOK, session)
}

// UpdateSession assigns the table number of a session
func UpdateSession(c echo.Context) error {
	log := logger.FromContext(c)

	var req tableRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse session update", zap.Error(err))
		return badRequest(c, "table_number must be a non-negative integer")
	}

	session, err := sessionService().UpdateTable(c.Request().Context(), c.Param("id"), req.value())
	if err != nil {
		return handleError(c, err, "Update session")
	}
	return success(c, http.StatusOK, session)
}

// AddToCart adds a menu to the session's cart
func AddToCart(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.AddToCartInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse cart request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	item, err := sessionService().AddToCart(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return handleError(c, err, "Add to cart")
	}
	return success(c, http.StatusCreated, item)
}

// GetCart returns the session's cart grouped by merchant
func GetCart(c echo.Context) error {
	cart, err := sessionService().GetCart(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err, "Get cart")
	}
	return success(c, http.StatusOK, cart)
}

// UpdateCartItem changes the quantity or notes of a cart line
func UpdateCartItem(c echo.Context) error {
	log := logger.FromContext(c)

	itemID, err := parseID(c, "itemId")
	if err != nil {
		return handleError(c, err, "Update cart item")
	}
	var req struct {
		Quantity *int    `json:"quantity"`
		Notes    *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse cart update", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if req.Quantity == nil {
		return badRequest(c, "quantity is required")
	}

	ctx := c.Request().Context()
	sessionID := c.Param("id")
	svc := sessionService()
	if err := svc.UpdateCartItem(ctx, sessionID, itemID, *req.Quantity, req.Notes); err != nil {
		return handleError(c, err, "Update cart item")
	}

	cart, err := svc.GetCart(ctx, sessionID)
	if err != nil {
		return handleError(c, err, "Update cart item")
	}
	return success(c, http.StatusOK, cart)
}

// RemoveCartItem deletes one line of the cart
func RemoveCartItem(c echo.Context) error {
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return handleError(c, err, "Remove cart item")
	}

	ctx := c.Request().Context()
	sessionID := c.Param("id")
	svc := sessionService()
	if err := svc.RemoveCartItem(ctx, sessionID, itemID); err != nil {
		return handleError(c, err, "Remove cart item")
	}

	cart, err := svc.GetCart(ctx, sessionID)
	if err != nil {
		return handleError(c, err, "Remove cart item")
	}
	return success(c, http.StatusOK, cart)
}

// ClearCart empties the session's cart
func ClearCart(c echo.Context) error {
	if err := sessionService().ClearCart(c.Request().Context(), c.Param("id")); err != nil {
		return handleError(c, err, "Clear cart")
	}
	return success(c, http.StatusOK, echo.Map{"cleared": true})
}

// ListSessionOrders returns the orders placed from a session
func ListSessionOrders(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("id")
	if _, err := sessionService().Get(ctx, sessionID); err != nil {
		return handleError(c, err, "List session orders")
	}

	orders, err := orderService().ListBySession(ctx, sessionID)
	if err != nil {
		return handleError(c, err, "List session orders")
	}
	return success(c, http.StatusOK, orders)
}
