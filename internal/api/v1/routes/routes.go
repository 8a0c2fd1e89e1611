package routes

import (
	"github.com/gin-gonic/gin"

	"mediaconv/internal/api/middleware"
	"mediaconv/internal/api/v1/handlers"
	"mediaconv/internal/api/v1/services"
)

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	AudioService       services.AudioService
	EntitlementService services.EntitlementService
	Verifier           middleware.IdentityVerifier
	Uploads            handlers.UploadConfig
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	authenticated := middleware.Authenticate(container.Verifier)

	audioHandler := handlers.NewAudioHandler(container.AudioService, container.Uploads)
	audio := router.Group("/audio")
	{
		audio.POST("/youtube", authenticated, audioHandler.ConvertYouTube)
		audio.POST("/video", authenticated, audioHandler.ConvertUpload)
		audio.GET("/youtube/preview", audioHandler.Preview)
		audio.GET("/download/:id", audioHandler.Download)
	}

	entitlementHandler := handlers.NewEntitlementHandler(container.EntitlementService)
	me := router.Group("/me", authenticated)
	{
		me.GET("/entitlement", entitlementHandler.Me)
	}
}
