package app

import (
	"github.com/gin-gonic/gin"

	"github.com/jairathnishant/MentorMe-AI/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowOrigins:   cfg.AllowOrigins,
		AuthHandler:    handlerset.Auth,
		AuthMiddleware: mw.Auth,
		UserHandler:    handlerset.User,
		MentorHandler:  handlerset.Mentor,
		SessionHandler: handlerset.Session,
		ReportHandler:  handlerset.Report,
		SSEHandler:     handlerset.SSE,
	})
}
