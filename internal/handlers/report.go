package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/services"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type ReportHandler struct {
	reportRepo repos.SessionReportRepo
	assembler  services.ReportAssembler
	bucket     gcp.BucketService
}

func NewReportHandler(reportRepo repos.SessionReportRepo, assembler services.ReportAssembler, bucket gcp.BucketService) *ReportHandler {
	return &ReportHandler{reportRepo: reportRepo, assembler: assembler, bucket: bucket}
}

type reportView struct {
	*types.SessionReport
	VideoURL  string `json:"video_url,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
}

func (rh *ReportHandler) view(report *types.SessionReport) reportView {
	v := reportView{SessionReport: report}
	if report.VideoBlobKey != "" {
		v.VideoURL = rh.bucket.GetPublicURL(report.VideoBlobKey)
	}
	if report.PosterBlobKey != "" {
		v.PosterURL = rh.bucket.GetPublicURL(report.PosterBlobKey)
	}
	return v
}

func (rh *ReportHandler) List(c *gin.Context) {
	reports, err := rh.reportRepo.ListByUser(c.Request.Context(), nil, UserID(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "report_list_failed", err)
		return
	}
	views := make([]reportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, rh.view(r))
	}
	RespondOK(c, gin.H{"reports": views})
}

func (rh *ReportHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := rh.reportRepo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "report_get_failed", err)
		return
	}
	if report == nil || report.UserID != UserID(c) {
		RespondError(c, http.StatusNotFound, "report_not_found", fmt.Errorf("report %s not found", id))
		return
	}
	RespondOK(c, rh.view(report))
}

func (rh *ReportHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := rh.assembler.Delete(c.Request.Context(), UserID(c), id); err != nil {
		RespondError(c, http.StatusNotFound, "report_delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
