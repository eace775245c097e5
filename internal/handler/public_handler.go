package handler

import (
	"net/http"

	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListMerchants returns the merchants open to buyers
func ListMerchants(c echo.Context) error {
	log := logger.FromContext(c)

	merchants, err := merchantService().List(c.Request().Context(), service.MerchantFilter{
		Search:        c.QueryParam("search"),
		AvailableOnly: true,
	})
	if err != nil {
		return handleError(c, err, "List merchants")
	}

	log.Debug("Listed merchants", zap.Int("count", len(merchants)))
	return success(c, http.StatusOK, merchants)
}

// GetMerchant returns one merchant open to buyers
func GetMerchant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Get merchant")
	}

	merchant, err := merchantService().Get(c.Request().Context(), id, true)
	if err != nil {
		return handleError(c, err, "Get merchant")
	}
	return success(c, http.StatusOK, merchant)
}

// ListMerchantMenus returns the available menus of a merchant
func ListMerchantMenus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "List menus")
	}
	categoryID, err := queryUint(c, "categoryId")
	if err != nil {
		return handleError(c, err, "List menus")
	}

	ctx := c.Request().Context()
	if _, err := merchantService().Get(ctx, id, true); err != nil {
		return handleError(c, err, "List menus")
	}

	menus, err := catalogService().ListMenus(ctx, service.MenuFilter{
		MerchantID:    id,
		CategoryID:    categoryID,
		Search:        c.QueryParam("search"),
		AvailableOnly: true,
	})
	if err != nil {
		return handleError(c, err, "List menus")
	}
	return success(c, http.StatusOK, menus)
}

// GetMerchantMenu returns one menu of a merchant
func GetMerchantMenu(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Get menu")
	}
	menuID, err := parseID(c, "menuId")
	if err != nil {
		return handleError(c, err, "Get menu")
	}

	menu, err := catalogService().GetMenu(c.Request().Context(), id, menuID)
	if err != nil {
		return handleError(c, err, "Get menu")
	}
	return success(c, http.StatusOK, menu)
}

// ListMerchantCategories returns the categories of a merchant with their menu counts
func ListMerchantCategories(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "List categories")
	}

	ctx := c.Request().Context()
	if _, err := merchantService().Get(ctx, id, true); err != nil {
		return handleError(c, err, "List categories")
	}

	categories, err := catalogService().ListCategories(ctx, id)
	if err != nil {
		return handleError(c, err, "List categories")
	}
	return success(c, http.StatusOK, categories)
}
