// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/sitekeep/internal/application/container"
	"github.com/AtRiskMedia/sitekeep/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/sitekeep/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/sitekeep/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware(config.CORSOrigins))

	// Initialize handlers
	integrityHandlers := handlers.NewIntegrityHandlers(container.ImageCleanupService, container.FolderReorganizeService, container.Logger)
	syncHandlers := handlers.NewSyncHandlers(container.FreshnessService, container.Logger)
	revalidateHandlers := handlers.NewRevalidateHandlers(container.RevalidationService, container.Logger)
	contentHandlers := handlers.NewContentHandlers(container.ContentService, container.Logger)
	mediaHandlers := handlers.NewMediaHandlers(container.MediaService, container.Logger)
	recordHandlers := handlers.NewRecordHandlers(container.RecordService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container.DB, container.PagesStore, container.Logger)

	r.GET("/health", healthHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(container.Metrics.Handler()))

	// Media objects are served straight from the object store root.
	r.Static("/media", container.Store.Root())

	api := r.Group("/api/v1")
	{
		api.POST("/sync/content", syncHandlers.PostSyncContent)
		api.GET("/content/:page", contentHandlers.GetPageContent)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
		}

		admin := api.Group("/admin")
		admin.Use(authHandlers.AuthMiddleware())
		{
			admin.POST("/cleanup-images", integrityHandlers.PostCleanupImages)
			admin.POST("/reorganize-folders", integrityHandlers.PostReorganizeFolders)
			admin.POST("/revalidate", revalidateHandlers.PostRevalidate)

			admin.PUT("/content", contentHandlers.PutContentItem)
			admin.DELETE("/content", contentHandlers.DeleteContentItem)

			admin.GET("/media", mediaHandlers.GetMediaFiles)
			admin.POST("/media", mediaHandlers.PostMediaFile)
			admin.DELETE("/media/:id", mediaHandlers.DeleteMediaFile)

			admin.PUT("/records/:table/:id/image", recordHandlers.PutRecordImage)
			admin.DELETE("/records/:table/:id", recordHandlers.DeleteRecord)
		}
	}

	return r
}
