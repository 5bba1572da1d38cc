package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"nordkart.com/app/internal/config"
	"nordkart.com/app/internal/http/handlers"
	"nordkart.com/app/internal/http/middleware"
	"nordkart.com/app/internal/modules/catalog"
	"nordkart.com/app/internal/modules/orders"
	"nordkart.com/app/internal/modules/payments"
)

func NewRouter(logger *slog.Logger, db *gorm.DB, rdb *redis.Client, cfg config.Config) *gin.Engine {
	provider := payments.NewMockpay(cfg.MockpayWebhookSecret)
	providers := map[string]payments.Provider{provider.Name(): provider}

	orderSvc := orders.NewService(db, logger)
	orderRepo := orders.NewRepo(db)
	paySvc := payments.NewService(db, provider, logger)
	claims := payments.NewClaimStore(rdb, cfg.ClaimTTL, cfg.StrictClaims, logger)
	settlements := payments.NewSettlementService(db, logger)
	products := catalog.NewGormRepo(db)

	r := gin.New()
	// ErrorHandler sits outside Recovery so errors recorded by the panic
	// handler still get rendered
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.ErrorHandler(logger),
		middleware.Recovery(logger),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	handlers.NewOrdersHandler(logger, orderSvc, orderRepo).Register(r)
	handlers.NewPaymentsHandler(logger, paySvc).Register(r)
	handlers.NewProductsHandler(logger, products).Register(r)
	handlers.NewWebhookHandler(logger, providers, claims, settlements).Register(r)

	return r
}
