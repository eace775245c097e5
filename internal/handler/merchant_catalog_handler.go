package handler

import (
	"net/http"

	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type categoryRequest struct {
	MerchantID uint   `json:"merchantId"`
	Name       string `json:"name"`
}

// merchantScope resolves the :id merchant and checks the session may manage it.
// Admins may manage any merchant, merchants only themselves.
func merchantScope(c echo.Context) (uint, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return 0, err
	}
	if middleware.GetRoleFromContext(c) == middleware.RoleAdmin {
		return id, nil
	}
	merchantID, ok := middleware.GetMerchantIDFromContext(c)
	if !ok || merchantID != id {
		logger.FromContext(c).Warn("Merchant tried to manage another merchant",
			zap.Uint("merchant_id", merchantID),
			zap.Uint("target_merchant_id", id))
		return 0, service.ErrForbidden
	}
	return id, nil
}

// CreateCategory adds a category to the merchant in the path
func CreateCategory(c echo.Context) error {
	merchantID, err := merchantScope(c)
	if err != nil {
		return handleError(c, err, "Create category")
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse category request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	category, err := catalogService().CreateCategory(c.Request().Context(), merchantID, req.Name)
	if err != nil {
		return handleError(c, err, "Create category")
	}
	return success(c, http.StatusCreated, category)
}

// UpdateCategory renames a category of the merchant in the path
func UpdateCategory(c echo.Context) error {
	merchantID, err := merchantScope(c)
	if err != nil {
		return handleError(c, err, "Update category")
	}
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		return handleError(c, err, "Update category")
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse category request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	category, err := catalogService().UpdateCategory(c.Request().Context(), merchantID, categoryID, req.Name)
	if err != nil {
		return handleError(c, err, "Update category")
	}
	return success(c, http.StatusOK, category)
}

// DeleteCategory removes a category no menu references
func DeleteCategory(c echo.Context) error {
	merchantID, err := merchantScope(c)
	if err != nil {
		return handleError(c, err, "Delete category")
	}
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		return handleError(c, err, "Delete category")
	}

	if err := catalogService().DeleteCategory(c.Request().Context(), merchantID, categoryID); err != nil {
		return handleError(c, err, "Delete category")
	}
	return success(c, http.StatusOK, echo.Map{"deleted": true})
}

// CreateMenu adds a menu to the merchant in the path
func CreateMenu(c echo.Context) error {
	merchantID, err := merchantScope(c)
	if err != nil {
		return handleError(c, err, "Create menu")
	}

	var req service.MenuInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse menu request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	menu, err := catalogService().CreateMenu(c.Request().Context(), merchantID, req)
	if err != nil {
		return handleError(c, err, "Create menu")
	}
	return success(c, http.StatusCreated, menu)
}

// UpdateMenu changes a menu of the merchant in the path
func UpdateMenu(c echo.Context) error {
	merchantID, err := merchantScope(c)
	if err != nil {
		return handleError(c, err, "Update menu")
	}
	menuID, err := parseID(c, "menuId")
	if err != nil {
		return handleError(c, err, "Update menu")
	}

	var req service.MenuInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse menu request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	menu, err := catalogService().UpdateMenu(c.Request().Context(), merchantID, menuID, req)
	if err != nil {
		return handleError(c, err, "Update menu")
	}
	return success(c, http.StatusOK, menu)
}

// DeleteMenu soft-deletes a menu of the merchant in the path
func DeleteMenu(c echo.Context) error {
	merchantID, err := merchantScope(c)
	if err != nil {
		return handleError(c, err, "Delete menu")
	}
	menuID, err := parseID(c, "menuId")
	if err != nil {
		return handleError(c, err, "Delete menu")
	}

	if err := catalogService().DeleteMenu(c.Request().Context(), merchantID, menuID); err != nil {
		return handleError(c, err, "Delete menu")
	}
	return success(c, http.StatusOK, echo.Map{"deleted": true})
}
