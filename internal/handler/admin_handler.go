package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/jwtutil"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const basicAuthUserKey = "basic_auth_user"

// LoginAdmin validates credentials and sets the admin_session cookie
func LoginAdmin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt(middleware.RoleAdmin)

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse admin login request", zap.Error(err))
		prometheus.RecordAuthError(middleware.RoleAdmin, "invalid_request")
		return badRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		prometheus.RecordAuthError(middleware.RoleAdmin, "invalid_request")
		return badRequest(c, "username and password are required")
	}

	admin, err := adminService().Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			prometheus.RecordAuthError(middleware.RoleAdmin, "invalid_credentials")
		}
		return handleError(c, err, "Admin login")
	}

	token, err := opts.JWT.GenerateAdminToken(admin.ID, admin.Username, time.Now())
	if err != nil {
		return handleError(c, err, "Admin login")
	}
	c.SetCookie(sessionCookie(middleware.AdminCookieName, token, jwtutil.AdminSessionDuration))

	log.Info("Admin logged in", zap.Uint("admin_id", admin.ID))
	return success(c, http.StatusOK, admin)
}

// LogoutAdmin clears the admin_session cookie
func LogoutAdmin(c echo.Context) error {
	c.SetCookie(expiredCookie(middleware.AdminCookieName))
	return success(c, http.StatusOK, echo.Map{"loggedOut": true})
}

// GetCurrentAdmin returns the signed-in admin
func GetCurrentAdmin(c echo.Context) error {
	adminID, _ := middleware.GetAdminIDFromContext(c)

	admin, err := adminService().Get(c.Request().Context(), adminID)
	if errors.Is(err, service.ErrNotFound) {
		c.SetCookie(expiredCookie(middleware.AdminCookieName))
		return fail(c, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
	}
	if err != nil {
		return handleError(c, err, "Get current admin")
	}
	return success(c, http.StatusOK, admin)
}

// UpdateAdminProfile renames the signed-in admin or changes their password
func UpdateAdminProfile(c echo.Context) error {
	adminID, _ := middleware.GetAdminIDFromContext(c)

	var req service.AdminProfileInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse admin profile request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	admin, err := adminService().UpdateProfile(c.Request().Context(), adminID, req)
	if err != nil {
		return handleError(c, err, "Update admin profile")
	}
	return success(c, http.StatusOK, admin)
}

// AdminBasicAuthValidator checks Basic-Auth credentials against the configured admin
func AdminBasicAuthValidator(username, password string, c echo.Context) (bool, error) {
	if opts.AdminUsername == "" || opts.AdminPassword == "" {
		logger.FromContext(c).Warn("Basic auth attempted without configured admin credentials")
		return false, nil
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(opts.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(opts.AdminPassword)) == 1
	if !userOK || !passOK {
		prometheus.RecordAuthError(middleware.RoleAdmin, "invalid_basic_auth")
		return false, nil
	}
	c.Set(basicAuthUserKey, username)
	return true, nil
}

// AdminBasicAuthCheck confirms the Basic-Auth credentials were accepted
func AdminBasicAuthCheck(c echo.Context) error {
	username, _ := c.Get(basicAuthUserKey).(string)
	return success(c, http.StatusOK, echo.Map{"authenticated": true, "username": username})
}

// AdminListMerchants lists every merchant, paginated
func AdminListMerchants(c echo.Context) error {
	merchants, pagination, err := merchantService().ListPage(c.Request().Context(), service.MerchantFilter{
		Search:        c.QueryParam("search"),
		AvailableOnly: queryBool(c, "availableOnly"),
	}, pageFromQuery(c))
	if err != nil {
		return handleError(c, err, "List merchants")
	}
	return paginated(c, merchants, pagination)
}

// AdminCreateMerchant registers a merchant on their behalf
func AdminCreateMerchant(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse merchant request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	merchant, err := merchantService().Register(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err, "Create merchant")
	}
	return success(c, http.StatusCreated, merchant)
}

// AdminGetMerchant returns any merchant, available or not
func AdminGetMerchant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Get merchant")
	}

	merchant, err := merchantService().Get(c.Request().Context(), id, false)
	if err != nil {
		return handleError(c, err, "Get merchant")
	}
	return success(c, http.StatusOK, merchant)
}

// AdminUpdateMerchant changes a merchant's profile and optionally resets the password
func AdminUpdateMerchant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update merchant")
	}

	var req struct {
		service.ProfileInput
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse merchant request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	ctx := c.Request().Context()
	svc := merchantService()
	merchant, err := svc.UpdateProfile(ctx, id, req.ProfileInput)
	if err != nil {
		return handleError(c, err, "Update merchant")
	}
	if req.Password != "" {
		if err := svc.ResetPassword(ctx, id, req.Password); err != nil {
			return handleError(c, err, "Update merchant")
		}
	}
	return success(c, http.StatusOK, merchant)
}

// AdminDeleteMerchant soft-deletes a merchant
func AdminDeleteMerchant(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Delete merchant")
	}

	if err := merchantService().Delete(c.Request().Context(), id); err != nil {
		return handleError(c, err, "Delete merchant")
	}
	return success(c, http.StatusOK, echo.Map{"deleted": true})
}

// AdminListMenus lists menus across merchants
func AdminListMenus(c echo.Context) error {
	merchantID, err := queryUint(c, "merchantId")
	if err != nil {
		return handleError(c, err, "List menus")
	}
	categoryID, err := queryUint(c, "categoryId")
	if err != nil {
		return handleError(c, err, "List menus")
	}

	menus, err := catalogService().ListMenus(c.Request().Context(), service.MenuFilter{
		MerchantID: merchantID,
		CategoryID: categoryID,
		Search:     c.QueryParam("search"),
	})
	if err != nil {
		return handleError(c, err, "List menus")
	}
	return success(c, http.StatusOK, menus)
}

// AdminCreateMenu adds a menu to the merchant named in the body
func AdminCreateMenu(c echo.Context) error {
	var req struct {
		service.MenuInput
		MerchantID uint `json:"merchantId"`
	}
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse menu request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if req.MerchantID == 0 {
		return badRequest(c, "merchantId is required")
	}

	menu, err := catalogService().CreateMenu(c.Request().Context(), req.MerchantID, req.MenuInput)
	if err != nil {
		return handleError(c, err, "Create menu")
	}
	return success(c, http.StatusCreated, menu)
}

// AdminUpdateMenu changes any menu
func AdminUpdateMenu(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update menu")
	}

	var req service.MenuInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse menu request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	ctx := c.Request().Context()
	svc := catalogService()
	menu, err := svc.GetMenu(ctx, 0, id)
	if err != nil {
		return handleError(c, err, "Update menu")
	}
	menu, err = svc.UpdateMenu(ctx, menu.MerchantID, id, req)
	if err != nil {
		return handleError(c, err, "Update menu")
	}
	return success(c, http.StatusOK, menu)
}

// AdminDeleteMenu soft-deletes any menu
func AdminDeleteMenu(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Delete menu")
	}

	ctx := c.Request().Context()
	svc := catalogService()
	menu, err := svc.GetMenu(ctx, 0, id)
	if err != nil {
		return handleError(c, err, "Delete menu")
	}
	if err := svc.DeleteMenu(ctx, menu.MerchantID, id); err != nil {
		return handleError(c, err, "Delete menu")
	}
	return success(c, http.StatusOK, echo.Map{"deleted": true})
}

// AdminListCategories lists categories, optionally of one merchant
func AdminListCategories(c echo.Context) error {
	merchantID, err := queryUint(c, "merchantId")
	if err != nil {
		return handleError(c, err, "List categories")
	}

	categories, err := catalogService().ListCategories(c.Request().Context(), merchantID)
	if err != nil {
		return handleError(c, err, "List categories")
	}
	return success(c, http.StatusOK, categories)
}

// AdminCreateCategory adds a category to the merchant named in the body
func AdminCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse category request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if req.MerchantID == 0 {
		return badRequest(c, "merchantId is required")
	}

	category, err := catalogService().CreateCategory(c.Request().Context(), req.MerchantID, req.Name)
	if err != nil {
		return handleError(c, err, "Create category")
	}
	return success(c, http.StatusCreated, category)
}

// AdminUpdateCategory renames any category
func AdminUpdateCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update category")
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse category request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	ctx := c.Request().Context()
	svc := catalogService()
	category, err := svc.GetCategory(ctx, id)
	if err != nil {
		return handleError(c, err, "Update category")
	}
	category, err = svc.UpdateCategory(ctx, category.MerchantID, id, req.Name)
	if err != nil {
		return handleError(c, err, "Update category")
	}
	return success(c, http.StatusOK, category)
}

// AdminDeleteCategory removes any category no menu references
func AdminDeleteCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Delete category")
	}

	ctx := c.Request().Context()
	svc := catalogService()
	category, err := svc.GetCategory(ctx, id)
	if err != nil {
		return handleError(c, err, "Delete category")
	}
	if err := svc.DeleteCategory(ctx, category.MerchantID, id); err != nil {
		return handleError(c, err, "Delete category")
	}
	return success(c, http.StatusOK, echo.Map{"deleted": true})
}

// AdminListOrders lists orders across merchants
func AdminListOrders(c echo.Context) error {
	merchantID, err := queryUint(c, "merchantId")
	if err != nil {
		return handleError(c, err, "List orders")
	}
	status := model.OrderStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return badRequest(c, "invalid status")
	}

	orders, pagination, err := orderService().List(c.Request().Context(), service.OrderFilter{
		MerchantID: merchantID,
		SessionID:  c.QueryParam("sessionId"),
		Status:     status,
	}, pageFromQuery(c))
	if err != nil {
		return handleError(c, err, "List orders")
	}
	return paginated(c, orders, pagination)
}

// AdminUpdateOrderStatus sets the status of any order
func AdminUpdateOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update order status")
	}
	return updateOrderStatus(c, id, service.Actor{Role: service.ActorAdmin})
}

// AdminListPayments lists payments, optionally by status
func AdminListPayments(c echo.Context) error {
	status := model.PaymentStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return badRequest(c, "invalid status")
	}

	payments, pagination, err := paymentService().List(c.Request().Context(), service.PaymentFilter{Status: status}, pageFromQuery(c))
	if err != nil {
		return handleError(c, err, "List payments")
	}
	return paginated(c, payments, pagination)
}

// AdminUpdatePaymentStatus manually sets a payment's status and cascades to its orders
func AdminUpdatePaymentStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleError(c, err, "Update payment status")
	}

	var req paymentStatusRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse payment status request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	payment, err := paymentService().SetStatus(c.Request().Context(), id, req.change(service.PaymentSourceAdmin))
	if err != nil {
		return handleError(c, err, "Update payment status")
	}
	return success(c, http.StatusOK, payment)
}

// AdminStats returns platform wide dashboard figures
func AdminStats(c echo.Context) error {
	stats, err := statsService().ForAdmin(c.Request().Context())
	if err != nil {
		return handleError(c, err, "Admin stats")
	}
	return success(c, http.StatusOK, stats)
}
