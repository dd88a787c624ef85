package app

import (
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/middleware"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, serviceset Services, reposet Repos) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, serviceset.Auth, reposet.UserToken),
	}
}
