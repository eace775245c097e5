package handler

import (
	"errors"
	"net/http"

	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/model"
	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RegisterMerchant creates a merchant account and signs it in
func RegisterMerchant(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse register request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	merchant, err := merchantService().Register(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err, "Register merchant")
	}
	if err := setMerchantSession(c, merchant); err != nil {
		return handleError(c, err, "Register merchant")
	}
	return success(c, http.StatusCreated, merchant)
}

// LoginMerchant validates phone and password and sets the merchant-session cookie
func LoginMerchant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt(middleware.RoleMerchant)

	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError(middleware.RoleMerchant, "invalid_request")
		return badRequest(c, "Invalid request body")
	}
	if req.PhoneNumber == "" || req.Password == "" {
		prometheus.RecordAuthError(middleware.RoleMerchant, "invalid_request")
		return badRequest(c, "phoneNumber and password are required")
	}

	merchant, err := merchantService().Authenticate(c.Request().Context(), req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			prometheus.RecordAuthError(middleware.RoleMerchant, "invalid_credentials")
		}
		return handleError(c, err, "Merchant login")
	}
	if err := setMerchantSession(c, merchant); err != nil {
		return handleError(c, err, "Merchant login")
	}

	log.Info("Merchant logged in", zap.Uint("merchant_id", merchant.ID))
	return success(c, http.StatusOK, merchant)
}

// LogoutMerchant clears the merchant-session cookie
func LogoutMerchant(c echo.Context) error {
	c.SetCookie(expiredCookie(middleware.MerchantCookieName))
	return success(c, http.StatusOK, echo.Map{"loggedOut": true})
}

// GetCurrentMerchant returns the signed-in merchant
func GetCurrentMerchant(c echo.Context) error {
	merchantID, _ := middleware.GetMerchantIDFromContext(c)

	merchant, err := merchantService().Get(c.Request().Context(), merchantID, false)
	if errors.Is(err, service.ErrNotFound) {
		// the account was removed after the cookie was issued
		c.SetCookie(expiredCookie(middleware.MerchantCookieName))
		return fail(c, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
	}
	if err != nil {
		return handleError(c, err, "Get current merchant")
	}
	return success(c, http.StatusOK, merchant)
}

// UpdateMerchantProfile changes the signed-in merchant's profile
func UpdateMerchantProfile(c echo.Context) error {
	log := logger.FromContext(c)
	merchantID, _ := middleware.GetMerchantIDFromContext(c)

	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse profile request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	merchant, err := merchantService().UpdateProfile(c.Request().Context(), merchantID, req)
	if err != nil {
		return handleError(c, err, "Update merchant profile")
	}
	return success(c, http.StatusOK, merchant)
}

// ChangeMerchantPassword replaces the signed-in merchant's password
func ChangeMerchantPassword(c echo.Context) error {
	log := logger.FromContext(c)
	merchantID, _ := middleware.GetMerchantIDFromContext(c)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse password request", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	if err := merchantService().ChangePassword(c.Request().Context(), merchantID, req.CurrentPassword, req.NewPassword); err != nil {
		return handleError(c, err, "Change merchant password")
	}
	return success(c, http.StatusOK, echo.Map{"updated": true})
}

func setMerchantSession(c echo.Context, merchant *model.Merchant) error {
	token, err := opts.JWT.GenerateMerchantToken(merchant.ID)
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie(middleware.MerchantCookieName, token, opts.JWT.MerchantSessionDuration()))
	return nil
}
