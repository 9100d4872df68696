package api

import (
	stdhttp "net/http"

	intconfig "dtt/internal/config"
	h "dtt/internal/http/handlers"
	"dtt/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var writerRoles = []string{"admin", "dispatcher"}

func NewRouter(env intconfig.Env, hs *h.Handlers, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", hs.Health)
		api.GET("/db-check", hs.DBCheck)
		api.GET("/routes", hs.Routes)

		// Auth
		api.POST("/auth/login", hs.Login)

		// The consent redirect comes back from Google without our bearer token.
		api.GET("/drive/oauth-callback", hs.DriveOAuthCallback)

		secured := api.Group("", middleware.AuthRequired([]byte(env.JWTSecret)))
		writers := middleware.RequireRoles(writerRoles...)

		// Trip tickets
		tickets := secured.Group("/trip-tickets")
		tickets.GET("", hs.ListTripTickets)
		tickets.GET("/export.xlsx", hs.ExportTripTickets)
		tickets.GET("/:id", hs.GetTripTicket)
		tickets.GET("/:id/pdf", hs.TripTicketPDF)
		tickets.POST("", writers, hs.CreateTripTicket)
		tickets.PUT("/:id/trip-log", writers, hs.UpdateTripLog)
		tickets.POST("/:id/upload", writers, hs.UploadTripTicket)
		tickets.POST("/upload-batch", writers, hs.UploadTripTicketBatch)
		tickets.DELETE("/:id/drive-file", writers, hs.DeleteTripTicketDriveFile)

		// Google Drive
		driveGroup := secured.Group("/drive")
		driveGroup.GET("/status", hs.DriveStatus)
		driveGroup.GET("/auth", writers, hs.AuthorizeDrive)
		driveGroup.POST("/revoke", writers, hs.DriveRevoke)

		// Modal stack
		modals := secured.Group("/modals")
		modals.GET("", hs.ListModals)
		modals.POST("/keydown", hs.ModalKeydown)
		modals.POST("/backdrop", hs.ModalBackdrop)
		modals.POST("/:id/buttons/:index", hs.ActivateModalButton)
		modals.DELETE("/:id", hs.CloseModal)
		modals.DELETE("", hs.CloseAllModals)
	}

	hs.SetRouter(r)
	return r
}
