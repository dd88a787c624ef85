package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jairathnishant/MentorMe-AI/internal/services"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type MentorHandler struct {
	mentorService services.MentorService
}

func NewMentorHandler(mentorService services.MentorService) *MentorHandler {
	return &MentorHandler{mentorService: mentorService}
}

func (mh *MentorHandler) List(c *gin.Context) {
	mentors, err := mh.mentorService.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "mentor_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"mentors": mentors})
}

func (mh *MentorHandler) Get(c *gin.Context) {
	mentor, err := mh.mentorService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "mentor_not_found", err)
		return
	}
	RespondOK(c, mentor)
}

func (mh *MentorHandler) Save(c *gin.Context) {
	var mentor types.Mentor
	if err := c.ShouldBindJSON(&mentor); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	saved, err := mh.mentorService.Save(c.Request.Context(), &mentor)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "mentor_save_failed", err)
		return
	}
	RespondOK(c, saved)
}

func (mh *MentorHandler) Delete(c *gin.Context) {
	if err := mh.mentorService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, http.StatusNotFound, "mentor_delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
