package handlers

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(h *Handler, cfg config.ServerConfig, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(corsMiddleware(cfg.AllowOrigins))

	router.GET("/healthcheck", HealthCheck)

	api := router.Group("/api")
	api.GET("/credentials", h.GetCredentials)
	api.PUT("/credentials", h.PutCredentials)
	api.DELETE("/credentials", h.DeleteCredentials)

	ws := api.Group("/workspaces")
	ws.POST("", h.CreateWorkspace)
	ws.GET("/:id", h.GetWorkspace)
	ws.DELETE("/:id", h.DeleteWorkspace)
	ws.POST("/:id/course", h.SubmitCourse)
	ws.POST("/:id/strategies/:painPointID", h.SelectStrategy)
	ws.POST("/:id/back", h.Back)

	ws.GET("/:id/slides", h.GetSlides)
	ws.POST("/:id/slides/images", h.GenerateAllImages)
	ws.PATCH("/:id/slides/:index", h.EditSlide)
	ws.POST("/:id/slides/:index/image", h.RegenerateImage)
	ws.GET("/:id/slides/:index/image", h.DownloadImage)
	ws.GET("/:id/caption", h.GetCaption)

	ws.GET("/:id/script", h.GetScript)
	ws.GET("/:id/transcript", h.GetTranscript)

	ws.POST("/:id/video", h.RequestVideo)
	ws.GET("/:id/video", h.GetVideo)
	ws.DELETE("/:id/video", h.ClearVideo)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}
