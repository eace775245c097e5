package router

import (
	"foodcourt-service/internal/handler"
	"foodcourt-service/internal/middleware"
	"foodcourt-service/pkg/logger"
	"foodcourt-service/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Config describes how the HTTP server is assembled
type Config struct {
	ServiceName  string
	BodyLimit    string
	AllowOrigins []string
	Handlers     handler.Options
}

// New builds the Echo server with middleware and every route
func New(cfg Config) *echo.Echo {
	handler.Configure(cfg.Handlers)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	corsConfig := echomiddleware.DefaultCORSConfig
	corsConfig.AllowCredentials = true
	if len(cfg.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "10M"
	}

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(corsConfig))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(metrics.NewHTTPMetrics(cfg.ServiceName).Middleware())
	e.Use(logger.Middleware())
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	Register(e, cfg.Handlers)
	return e
}

// Register mounts every route on e
func Register(e *echo.Echo, opts handler.Options) {
	jwt := opts.JWT
	merchantAuth := middleware.MerchantAuth(jwt)
	adminAuth := middleware.AdminAuth(jwt)
	ownerOrAdmin := middleware.MerchantOrAdminAuth(jwt)

	// Infrastructure
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	if opts.UploadDir != "" {
		e.Static(handler.UploadPathPrefix, opts.UploadDir)
	}

	api := e.Group("/api")

	// Merchant account and dashboard; static paths win over /:id
	merchants := api.Group("/merchants")
	merchants.POST("/register", handler.RegisterMerchant)
	merchants.POST("/login", handler.LoginMerchant)
	merchants.POST("/logout", handler.LogoutMerchant)
	merchants.GET("/me", handler.GetCurrentMerchant, merchantAuth)
	merchants.PUT("/profile", handler.UpdateMerchantProfile, merchantAuth)
	merchants.PUT("/profile/password", handler.ChangeMerchantPassword, merchantAuth)
	merchants.POST("/upload", handler.UploadImage, ownerOrAdmin)

	dashboard := merchants.Group("/dashboard", merchantAuth)
	dashboard.GET("/orders", handler.DashboardOrders)
	dashboard.PATCH("/orders/:id/status", handler.DashboardUpdateOrderStatus)
	dashboard.PATCH("/orders/:id/payment", handler.DashboardUpdatePayment)
	dashboard.GET("/stats", handler.DashboardStats)

	// Public catalogue
	merchants.GET("", handler.ListMerchants)
	merchants.GET("/:id", handler.GetMerchant)
	merchants.GET("/:id/menus", handler.ListMerchantMenus)
	merchants.GET("/:id/menus/:menuId", handler.GetMerchantMenu)
	merchants.GET("/:id/categories", handler.ListMerchantCategories)

	// Catalogue management by the owner or an admin
	merchants.POST("/:id/categories", handler.CreateCategory, ownerOrAdmin)
	merchants.PUT("/:id/categories/:categoryId", handler.UpdateCategory, ownerOrAdmin)
	merchants.DELETE("/:id/categories/:categoryId", handler.DeleteCategory, ownerOrAdmin)
	merchants.POST("/:id/menus", handler.CreateMenu, ownerOrAdmin)
	merchants.PUT("/:id/menus/:menuId", handler.UpdateMenu, ownerOrAdmin)
	merchants.DELETE("/:id/menus/:menuId", handler.DeleteMenu, ownerOrAdmin)

	// Buyer sessions and cart
	sessions := api.Group("/sessions")
	sessions.POST("", handler.CreateSession)
	sessions.GET("/:id", handler.GetSession)
	sessions.PATCH("/:id", handler.UpdateSession)
	sessions.GET("/:id/cart", handler.GetCart)
	sessions.POST("/:id/cart", handler.AddToCart)
	sessions.DELETE("/:id/cart", handler.ClearCart)
	sessions.PATCH("/:id/cart/:itemId", handler.UpdateCartItem)
	sessions.DELETE("/:id/cart/:itemId", handler.RemoveCartItem)
	sessions.GET("/:id/orders", handler.ListSessionOrders)

	// Orders
	orders := api.Group("/orders")
	orders.POST("", handler.CreateOrder)
	orders.POST("/batch", handler.CreateBatchOrders)
	orders.GET("/:id", handler.GetOrder)
	orders.POST("/:id/cancel", handler.CancelOrder)
	orders.GET("/:id/status", handler.GetOrderStatus)
	orders.PATCH("/:id/status", handler.UpdateOrderStatus, ownerOrAdmin)

	// Payments
	payments := api.Group("/payments")
	payments.POST("/create", handler.CreatePayments)
	payments.POST("/invoice", handler.CreateInvoice)
	payments.GET("/:id", handler.GetPayment)

	api.POST("/webhooks/xendit", handler.XenditWebhook)

	// Admin
	admin := api.Group("/admin")
	admin.POST("/login", handler.LoginAdmin)
	admin.POST("/logout", handler.LogoutAdmin)
	admin.GET("/auth", handler.AdminBasicAuthCheck, echomiddleware.BasicAuth(handler.AdminBasicAuthValidator))

	protected := admin.Group("", adminAuth)
	protected.GET("/me", handler.GetCurrentAdmin)
	protected.PUT("/profile", handler.UpdateAdminProfile)
	protected.GET("/dashboard/stats", handler.AdminStats)

	protected.GET("/merchants", handler.AdminListMerchants)
	protected.POST("/merchants", handler.AdminCreateMerchant)
	protected.GET("/merchants/:id", handler.AdminGetMerchant)
	protected.PUT("/merchants/:id", handler.AdminUpdateMerchant)
	protected.DELETE("/merchants/:id", handler.AdminDeleteMerchant)

	protected.GET("/menus", handler.AdminListMenus)
	protected.POST("/menus", handler.AdminCreateMenu)
	protected.PUT("/menus/:id", handler.AdminUpdateMenu)
	protected.DELETE("/menus/:id", handler.AdminDeleteMenu)

	protected.GET("/categories", handler.AdminListCategories)
	protected.POST("/categories", handler.AdminCreateCategory)
	protected.PUT("/categories/:id", handler.AdminUpdateCategory)
	protected.DELETE("/categories/:id", handler.AdminDeleteCategory)

	protected.GET("/orders", handler.AdminListOrders)
	protected.GET("/orders/:id", handler.GetOrder)
	protected.PATCH("/orders/:id/status", handler.AdminUpdateOrderStatus)

	protected.GET("/payments", handler.AdminListPayments)
	protected.GET("/payments/:id", handler.GetPayment)
	protected.PATCH("/payments/:id/status", handler.AdminUpdatePaymentStatus)
}
