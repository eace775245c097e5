package handler

import (
	"net/http"
	"time"

	"foodcourt-service/internal/service"
	"foodcourt-service/pkg/database"
	"foodcourt-service/pkg/jwtutil"
)

// Options wires the handlers to their collaborators
type Options struct {
	JWT            *jwtutil.JWTUtil
	Gateway        service.InvoiceGateway
	Payments       service.PaymentOptions
	WebhookToken   string
	AdminUsername  string
	AdminPassword  string
	UploadDir      string
	UploadMaxBytes int64
	PublicBaseURL  string
	SecureCookies  bool
}

var opts Options

// Configure sets the collaborators used by every handler
func Configure(o Options) {
	opts = o
}

func merchantService() *service.MerchantService {
	return service.NewMerchantService(database.GetDB())
}

func catalogService() *service.CatalogService {
	return service.NewCatalogService(database.GetDB())
}

func sessionService() *service.SessionService {
	return service.NewSessionService(database.GetDB())
}

func orderService() *service.OrderService {
	return service.NewOrderService(database.GetDB())
}

func paymentService() *service.PaymentService {
	return service.NewPaymentService(database.GetDB(), opts.Gateway, opts.Payments)
}

func adminService() *service.AdminService {
	return service.NewAdminService(database.GetDB())
}

func statsService() *service.StatsService {
	return service.NewStatsService(database.GetDB())
}

func sessionCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
