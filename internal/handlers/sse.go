package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{log: log.With("handler", "SSEHandler"), hub: hub}
}

// Stream opens the event stream for one session. EventSource cannot set
// headers, so auth rides on ?token= (handled by the middleware).
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := UserID(c)
	sessionID, err := uuid.Parse(c.Query("session"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.log.Info("SSE stream open", "user", userID, "session", sessionID)

	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, sse.SessionChannel(sessionID))

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Info("SSE stream closed", "user", userID, "session", sessionID)
}
