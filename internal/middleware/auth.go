package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jairathnishant/MentorMe-AI/internal/handlers"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	tokenRepo   repos.UserTokenRepo
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, tokenRepo repos.UserTokenRepo) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "AuthMiddleware"),
		authService: authService,
		tokenRepo:   tokenRepo,
	}
}

// RequireAuth validates the bearer token and checks it has not been
// revoked by logout, then stores the user id on the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := handlers.BearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		userID, err := am.authService.ParseAccessToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		stored, err := am.tokenRepo.GetByAccessToken(c.Request.Context(), nil, tokenString)
		if err != nil {
			am.log.Warn("Token lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token lookup failed"})
			return
		}
		if stored == nil || stored.UserID != userID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}
		c.Set(handlers.ContextUserIDKey, userID)
		c.Next()
	}
}
