package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jairathnishant/MentorMe-AI/internal/handlers"
	"github.com/jairathnishant/MentorMe-AI/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowOrigins   []string
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	MentorHandler  *handlers.MentorHandler
	SessionHandler *handlers.SessionHandler
	ReportHandler  *handlers.ReportHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/auth/request-otp", cfg.AuthHandler.RequestOTP)
		api.POST("/auth/verify-otp", cfg.AuthHandler.VerifyOTP)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", cfg.AuthHandler.Logout)

		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.PATCH("/me", cfg.UserHandler.UpdateMe)

		protected.GET("/mentors", cfg.MentorHandler.List)
		protected.GET("/mentors/:id", cfg.MentorHandler.Get)
		protected.PUT("/mentors", cfg.MentorHandler.Save)
		protected.DELETE("/mentors/:id", cfg.MentorHandler.Delete)

		protected.POST("/sessions", cfg.SessionHandler.Start)
		protected.GET("/sessions/:id", cfg.SessionHandler.Status)
		protected.POST("/sessions/:id/frame", cfg.SessionHandler.Frame)
		protected.POST("/sessions/:id/chunk", cfg.SessionHandler.Chunk)
		protected.POST("/sessions/:id/speak", cfg.SessionHandler.Speak)
		protected.DELETE("/sessions/:id/transcript", cfg.SessionHandler.ClearTranscript)
		protected.POST("/sessions/:id/voice", cfg.SessionHandler.Voice)
		protected.POST("/sessions/:id/stop", cfg.SessionHandler.Stop)

		protected.GET("/reports", cfg.ReportHandler.List)
		protected.GET("/reports/:id", cfg.ReportHandler.Get)
		protected.DELETE("/reports/:id", cfg.ReportHandler.Delete)

		protected.GET("/sse/stream", cfg.SSEHandler.Stream)
	}

	return router
}
