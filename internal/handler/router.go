package handler

import (
	"time"

	"coinshop/internal/catalog"
	"coinshop/internal/config"
	"coinshop/internal/infrastructure/lock"
	"coinshop/internal/repository"
	"coinshop/internal/service"
	"coinshop/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter wires repositories, services and routes.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	accountRepo := repository.NewAccountRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	productRepo := repository.NewProductRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	cat := catalog.NewStoreCatalog(productRepo)
	ledgerService := service.NewLedgerService(accountRepo, transactionRepo, cfg)
	orderService := service.NewOrderService(orderRepo, cat)
	paymentService := service.NewPaymentService(orderRepo, outboxRepo, ledgerService, lock.NewRedisLocker(rdb), cfg)

	jwtService := jwt.NewService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	h := NewHandler(ledgerService, orderService, paymentService, cat)

	api := r.Group("/api/v1")
	{
		account := api.Group("/account", AuthMiddleware(jwtService))
		{
			account.GET("/balance", h.GetBalance)
			account.GET("/credit-history", h.GetCreditHistory)
		}

		generation := api.Group("/generation", AuthMiddleware(jwtService))
		{
			generation.POST("/charge", h.ChargeGeneration)
		}

		payment := api.Group("/payment")
		{
			payment.GET("/products", h.ListProducts)
			payment.POST("/create-order", AuthMiddleware(jwtService), h.CreateOrder)
			// gateway callback; authenticated by the PG's own channel,
			// not by a user token
			payment.POST("/confirm", h.ConfirmPayment)
		}

		order := api.Group("/order", AuthMiddleware(jwtService))
		{
			order.GET("/detail", h.GetOrder)
			order.GET("/list", h.ListOrders)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
