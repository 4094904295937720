package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appprinting "github.com/printpay/backend/internal/application/printing"
	"github.com/printpay/backend/internal/infrastructure/config"
	"github.com/printpay/backend/internal/infrastructure/logger"
	"github.com/printpay/backend/internal/interfaces/http/handler"
	"github.com/printpay/backend/internal/interfaces/http/middleware"
)

// New builds the HTTP router with the full middleware chain and all routes.
// The route surface is flat, matching what the kiosk frontend calls.
func New(cfg *config.Config, service *appprinting.PrintOrderService, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))
	r.Use(logger.Recovery(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	r.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	orders := handler.NewPrintOrderHandler(service)
	system := handler.NewSystemHandler(cfg.App.Name)

	r.GET("/health", system.Health)
	r.GET("/price-per-page", orders.PricePerPage)
	r.GET("/printers", orders.ListPrinters)
	r.POST("/count-pages", orders.CountPages)
	r.POST("/create-payment", orders.CreatePayment)
	r.GET("/payment-status/:paymentId", orders.PaymentStatus)
	r.POST("/print", orders.Print)

	return r
}
