package middleware

import (
	"net/http"

	"foodcourt-service/internal/model"
	"foodcourt-service/pkg/database"
	"foodcourt-service/pkg/jwtutil"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Session cookie names
const (
	AdminCookieName    = "admin_session"
	MerchantCookieName = "merchant-session"
)

// Echo context keys set by the session middlewares
const (
	merchantIDKey    = "merchant_id"
	adminIDKey       = "admin_id"
	adminUsernameKey = "admin_username"
	roleKey          = "role"
)

// Roles stored in the context
const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
)

// ErrAuthenticationRequired is returned when no valid session cookie is present
var ErrAuthenticationRequired = echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")

// MerchantAuth only lets requests with a valid merchant-session cookie through
func MerchantAuth(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authenticateMerchant(c, jwt) {
				logger.FromContext(c).Warn("Merchant session missing or invalid")
				return ErrAuthenticationRequired
			}
			return next(c)
		}
	}
}

// AdminAuth only lets requests with a valid admin_session cookie through
func AdminAuth(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authenticateAdmin(c, jwt) {
				logger.FromContext(c).Warn("Admin session missing or invalid")
				return ErrAuthenticationRequired
			}
			return next(c)
		}
	}
}

// MerchantOrAdminAuth accepts either session; the admin session wins when both are present
func MerchantOrAdminAuth(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authenticateAdmin(c, jwt) && !authenticateMerchant(c, jwt) {
				logger.FromContext(c).Warn("No valid merchant or admin session")
				return ErrAuthenticationRequired
			}
			return next(c)
		}
	}
}

func authenticateMerchant(c echo.Context, jwt *jwtutil.JWTUtil) bool {
	cookie, err := c.Cookie(MerchantCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	claims, err := jwt.ValidateMerchantToken(cookie.Value)
	if err != nil {
		logger.FromContext(c).Debug("Rejected merchant session", zap.Error(err))
		return false
	}
	if !accountActive(c, &model.Merchant{}, claims.MerchantID) {
		return false
	}

	c.Set(merchantIDKey, claims.MerchantID)
	c.Set(roleKey, RoleMerchant)
	c.Set("logger", logger.FromContext(c).With(zap.Uint("merchant_id", claims.MerchantID)))
	return true
}

func authenticateAdmin(c echo.Context, jwt *jwtutil.JWTUtil) bool {
	cookie, err := c.Cookie(AdminCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	claims, err := jwt.ValidateAdminToken(cookie.Value)
	if err != nil {
		logger.FromContext(c).Debug("Rejected admin session", zap.Error(err))
		return false
	}
	if !accountActive(c, &model.Admin{}, claims.AdminID) {
		return false
	}

	c.Set(adminIDKey, claims.AdminID)
	c.Set(adminUsernameKey, claims.Username)
	c.Set(roleKey, RoleAdmin)
	c.Set("logger", logger.FromContext(c).With(zap.Uint("admin_id", claims.AdminID)))
	return true
}

// accountActive reports whether the session's account still exists and is not soft-deleted
func accountActive(c echo.Context, account interface{}, id uint) bool {
	var count int64
	err := database.GetDB().WithContext(c.Request().Context()).
		Model(account).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		logger.FromContext(c).Error("Failed to look up session account", zap.Uint("id", id), zap.Error(err))
		return false
	}
	if count == 0 {
		logger.FromContext(c).Info("Session account no longer exists", zap.Uint("id", id))
		return false
	}
	return true
}

// GetMerchantIDFromContext retrieves the authenticated merchant ID
// Returns 0, false if no merchant session was validated
func GetMerchantIDFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get(merchantIDKey).(uint)
	return id, ok
}

// GetAdminIDFromContext retrieves the authenticated admin ID
func GetAdminIDFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get(adminIDKey).(uint)
	return id, ok
}

// GetRoleFromContext returns the role of the validated session, if any
func GetRoleFromContext(c echo.Context) string {
	role, _ := c.Get(roleKey).(string)
	return role
}
