package handlers

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"

	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/services"
)

// Upload caps. Frames are single downscaled images; chunks and audio are
// short clips.
const (
	maxFrameBytes = 8 << 20
	maxChunkBytes = 32 << 20
	maxAudioBytes = 8 << 20
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (sh *SessionHandler) Start(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	snap, err := sh.sessionService.Start(c.Request.Context(), UserID(c), req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "session_start_failed", err)
		return
	}
	RespondOK(c, snap)
}

func (sh *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

func (sh *SessionHandler) Status(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	snap, err := sh.sessionService.Status(UserID(c), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, snap)
}

// Frame accepts one raw JPEG or PNG body and feeds it into the session's
// frame mailbox. A stale or unused frame is simply overwritten by the
// next one.
func (sh *SessionHandler) Frame(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFrameBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "frame_decode_failed", err)
		return
	}
	if err := sh.sessionService.PushFrame(UserID(c), id, img); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"accepted": true})
}

func (sh *SessionHandler) Chunk(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxChunkBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := sh.sessionService.PushChunk(UserID(c), id, body, c.ContentType()); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"accepted": true})
}

func (sh *SessionHandler) Speak(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	transcript, recognized, err := sh.sessionService.Speak(c.Request.Context(), UserID(c), id, body, c.ContentType())
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"recognized": recognized, "transcript": transcript})
}

func (sh *SessionHandler) ClearTranscript(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	if err := sh.sessionService.ClearTranscript(UserID(c), id); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (sh *SessionHandler) Voice(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := sh.sessionService.SetVoiceEnabled(UserID(c), id, req.Enabled); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"enabled": req.Enabled})
}

func (sh *SessionHandler) Stop(c *gin.Context) {
	id, ok := sh.sessionID(c)
	if !ok {
		return
	}
	snap, err := sh.sessionService.Stop(c.Request.Context(), UserID(c), id)
	if err != nil {
		// Teardown already happened; the snapshot carries the error state.
		c.JSON(http.StatusOK, snap)
		return
	}
	RespondOK(c, snap)
}
