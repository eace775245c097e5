package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Error codes returned in the response envelope
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodePaymentGateway = "PAYMENT_GATEWAY_ERROR"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// ErrorBody is the error part of the envelope
type ErrorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	MenuCount *int64 `json:"menuCount,omitempty"`
}

// Response is the envelope every endpoint answers with
type Response struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Error      *ErrorBody          `json:"error,omitempty"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func paginated(c echo.Context, data interface{}, pagination service.Pagination) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &pagination})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{Error: &ErrorBody{Message: message, Code: code}})
}

func badRequest(c echo.Context, message string) error {
	return fail(c, http.StatusBadRequest, CodeBadRequest, message)
}

// handleError maps a service error onto the error taxonomy
func handleError(c echo.Context, err error, action string) error {
	log := logger.FromContext(c)

	var (
		inUse      *service.CategoryInUseError
		validation *service.ValidationError
		conflict   *service.ConflictError
	)
	switch {
	case errors.As(err, &inUse):
		count := inUse.MenuCount
		log.Warn(action+" rejected", zap.Int64("menu_count", count))
		return c.JSON(http.StatusConflict, Response{Error: &ErrorBody{
			Message:   "Category is still used by menus",
			Code:      CodeConflict,
			MenuCount: &count,
		}})
	case errors.As(err, &validation):
		log.Warn(action+" rejected", zap.String("reason", validation.Message))
		return badRequest(c, validation.Message)
	case errors.As(err, &conflict):
		log.Warn(action+" conflict", zap.String("reason", conflict.Message))
		return fail(c, http.StatusConflict, CodeConflict, conflict.Message)
	case errors.Is(err, service.ErrNotFound):
		log.Warn(action+" target not found", zap.Error(err))
		return fail(c, http.StatusNotFound, CodeNotFound, capitalize(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		log.Warn(action+" forbidden", zap.Error(err))
		return fail(c, http.StatusForbidden, CodeForbidden, "You do not have access to this resource")
	case errors.Is(err, service.ErrInvalidCredentials):
		log.Warn(action+" unauthorized", zap.Error(err))
		return fail(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrGateway):
		log.Error(action+" failed at payment gateway", zap.Error(err))
		return fail(c, http.StatusBadGateway, CodePaymentGateway, "Payment gateway error")
	case errors.Is(err, service.ErrInvalidInput):
		log.Warn(action+" rejected", zap.Error(err))
		return badRequest(c, capitalize(err.Error()))
	default:
		log.Error(action+" failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

// HTTPErrorHandler renders framework errors in the response envelope
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if he.Internal != nil {
			logger.FromContext(c).Debug("HTTP error", zap.Error(he.Internal))
		}
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = fmt.Sprint(he.Message)
		}
	} else {
		logger.FromContext(c).Error("Unhandled error", zap.Error(err))
	}
	if status >= http.StatusInternalServerError {
		message = "Internal server error"
	}

	body := Response{Error: &ErrorBody{Message: capitalize(message), Code: codeForStatus(status)}}
	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(writeErr))
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusBadGateway:
		return CodePaymentGateway
	default:
		if status >= 500 {
			return CodeInternal
		}
		return CodeBadRequest
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseID reads a positive numeric path parameter
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Invalid("invalid %s", name)
	}
	return uint(id), nil
}

// queryUint reads an optional numeric query parameter; empty means zero
func queryUint(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, service.Invalid("invalid %s", name)
	}
	return uint(id), nil
}

// pageFromQuery reads page and pageSize (alias limit) query parameters
func pageFromQuery(c echo.Context) service.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if size == 0 {
		size, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	return service.Page{Page: page, PageSize: size}.Normalize()
}

func queryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
