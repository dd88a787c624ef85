package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jairathnishant/MentorMe-AI/internal/services"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.Get(c.Request.Context(), UserID(c))
	if err != nil {
		RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Name     string         `json:"name,omitempty"`
		Language types.Language `json:"language,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, err := uh.userService.UpdateProfile(c.Request.Context(), UserID(c), req.Name, req.Language)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, user)
}
