package router

import (
	"net/http"

	"github.com/hqbui/faceswap-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, adminToken string) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "faceswap-api-service",
		})
	})

	swapHandler := handler.NewSwapHandler(deps)
	paymentHandler := handler.NewPaymentHandler(deps)
	accountHandler := handler.NewAccountHandler(deps)
	adminHandler := handler.NewAdminHandler(deps)

	v1 := r.Group("/api/v1")
	{
		swaps := v1.Group("/swaps")
		{
			swaps.POST("", swapHandler.SubmitSwap)
			swaps.GET("", swapHandler.ListSwaps)
			swaps.GET("/:request_id", swapHandler.GetSwap)
		}

		users := v1.Group("/users")
		{
			users.GET("/:user_id/balance", accountHandler.GetBalance)
			users.GET("/:user_id/transactions", accountHandler.ListTransactions)
		}

		// Signature verification happens at the gateway; this boundary only
		// guarantees idempotency
		v1.POST("/payments/webhook", paymentHandler.Webhook)

		admin := v1.Group("/admin")
		admin.Use(AdminAuthMiddleware(adminToken, deps.Logger))
		{
			admin.POST("/credits/grant", adminHandler.GrantCredits)
		}
	}

	return r
}
