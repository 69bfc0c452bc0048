// Package routes configures the gin engine and the HTTP surface.
package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/api/handlers"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/api/middleware"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/di"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	if container.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware, order matters
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(container.Config.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	coreHandlers := handlers.NewCoreHandlers(container.DB, container.Logger)
	transferHandlers := handlers.NewTransferHandlers(container.TransferService, container.Logger)
	rateHandlers := handlers.NewRateHandlers(container.RateService, container.Logger)
	networkHandlers := handlers.NewNetworkHandlers(container.NetworkRepo, container.Logger)

	// Health checks (no auth required)
	router.GET("/health", coreHandlers.Health)
	router.GET("/ready", coreHandlers.Ready)
	router.GET("/live", coreHandlers.Live)
	router.GET("/version", coreHandlers.GetVersion)
	router.GET("/metrics", coreHandlers.Metrics)

	// Swagger documentation (development only)
	if container.Config.Environment != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authentication(container.Config))
	{
		rateRoutes := v1.Group("/rates")
		{
			rateRoutes.POST("", rateHandlers.Create)
			rateRoutes.GET("/:id", rateHandlers.Get)
		}

		v1.GET("/networks/:id", networkHandlers.Get)

		transferRoutes := v1.Group("/transfers")
		{
			transferRoutes.POST("/calculate-amount", transferHandlers.CalculateAmount)
			transferRoutes.POST("/deposit", transferHandlers.CreateDeposit)
			transferRoutes.POST("/withdrawal/code", transferHandlers.SendWithdrawalCode)
			transferRoutes.POST("/withdrawal", transferHandlers.CreateWithdrawal)
			transferRoutes.PATCH("/:id/txid", transferHandlers.UpdateTxID)
			transferRoutes.GET("", transferHandlers.List)
			transferRoutes.GET("/:id", transferHandlers.Get)
		}

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.GET("/transfers", transferHandlers.ListAdmin)
			adminRoutes.PATCH("/transfers/:id/deposit/cancel", transferHandlers.CancelDeposit)
			adminRoutes.PATCH("/transfers/:id/withdrawal/cancel", transferHandlers.CancelWithdrawal)
			adminRoutes.PATCH("/transfers/:id/deposit/confirm", transferHandlers.ConfirmDeposit)
			adminRoutes.PATCH("/transfers/:id/withdrawal/confirm", transferHandlers.ConfirmWithdrawal)
			adminRoutes.PATCH("/transfers/:id/process", transferHandlers.Process)
			adminRoutes.PATCH("/transfers/:id/note", transferHandlers.Annotate)
			adminRoutes.PATCH("/networks/:id/deposit-address", networkHandlers.UpdateDepositAddress)
		}
	}

	return router
}
