package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jairathnishant/MentorMe-AI/internal/services"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.authService.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		RespondError(c, http.StatusBadRequest, "otp_request_failed", err)
		return
	}
	RespondOK(c, gin.H{"sent": true})
}

func (ah *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Phone    string         `json:"phone"`
		Code     string         `json:"code"`
		Name     string         `json:"name,omitempty"`
		Language types.Language `json:"language,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, pair, err := ah.authService.VerifyOTP(c.Request.Context(), req.Phone, req.Code, req.Name, req.Language)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "otp_verify_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	pair, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "refresh_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	token := BearerToken(c)
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := ah.authService.Logout(c.Request.Context(), token); err != nil {
		RespondError(c, http.StatusInternalServerError, "logout_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
