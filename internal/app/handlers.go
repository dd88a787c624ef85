package app

import (
	"github.com/jairathnishant/MentorMe-AI/internal/handlers"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/sse"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Mentor  *handlers.MentorHandler
	Session *handlers.SessionHandler
	Report  *handlers.ReportHandler
	SSE     *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, clients Clients, reposet Repos, hub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:    handlers.NewAuthHandler(serviceset.Auth),
		User:    handlers.NewUserHandler(serviceset.User),
		Mentor:  handlers.NewMentorHandler(serviceset.Mentor),
		Session: handlers.NewSessionHandler(serviceset.Session),
		Report:  handlers.NewReportHandler(reposet.SessionReport, serviceset.Reports, clients.GcpBucket),
		SSE:     handlers.NewSSEHandler(log, hub),
	}
}
