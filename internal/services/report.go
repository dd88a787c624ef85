package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
	"github.com/jairathnishant/MentorMe-AI/internal/utils"
)

const (
	reportRetentionLimit = 5
	videoLabelLimit      = 5
)

// ReportInput is everything the session loop hands over at stop time.
type ReportInput struct {
	UserID    uuid.UUID
	Mentor    *types.Mentor
	Language  types.Language
	StartTime time.Time
	EndTime   time.Time
	Timeline  []types.AnalysisPoint
	Recorder  *media.Recorder
	IsFlagged bool
}

// ReportAssembler turns a finished recording session into a persisted
// SessionReport. The summary is required; media persistence and label
// enrichment are best effort.
type ReportAssembler interface {
	Assemble(ctx context.Context, in ReportInput) (*types.SessionReport, error)
	Delete(ctx context.Context, userID, reportID uuid.UUID) error
}

type reportAssembler struct {
	log       *logger.Logger
	analysis  AnalysisService
	poster    PosterRenderer
	bucket    gcp.BucketService
	video     gcp.Video
	repo      repos.SessionReportRepo
	retention int
}

func NewReportAssembler(
	log *logger.Logger,
	analysis AnalysisService,
	poster PosterRenderer,
	bucket gcp.BucketService,
	video gcp.Video,
	repo repos.SessionReportRepo,
) ReportAssembler {
	serviceLog := log.With("service", "ReportAssembler")
	return &reportAssembler{
		log:       serviceLog,
		analysis:  analysis,
		poster:    poster,
		bucket:    bucket,
		video:     video,
		repo:      repo,
		retention: utils.GetEnvAsInt("REPORT_RETENTION_LIMIT", reportRetentionLimit, serviceLog),
	}
}

func (ra *reportAssembler) Assemble(ctx context.Context, in ReportInput) (*types.SessionReport, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if in.EndTime.Before(in.StartTime) {
		in.EndTime = in.StartTime
	}

	summary, err := ra.analysis.Summarize(ctx, in.Timeline, in.Mentor, in.Language)
	if err != nil {
		return nil, fmt.Errorf("summarize session: %w", err)
	}

	activity := "Session"
	if in.Mentor != nil {
		activity = in.Mentor.Name
	}

	report := &types.SessionReport{
		ID:              uuid.New(),
		UserID:          in.UserID,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationSeconds: int(in.EndTime.Sub(in.StartTime).Seconds()),
		ActivityType:    activity,
		OverallScore:    summary.OverallScore,
		KeyInsights:     summary.KeyInsights,
		Timeline:        in.Timeline,
		IsFlagged:       in.IsFlagged,
	}

	ra.persistMedia(ctx, report, in.Recorder)
	ra.enrichWithVideoLabels(ctx, report)

	saved, err := ra.repo.Create(ctx, nil, report)
	if err != nil {
		return nil, fmt.Errorf("persist session report: %w", err)
	}

	ra.evictOldest(ctx, in.UserID)
	return saved, nil
}

// persistMedia uploads the recorded video and the rendered poster card
// concurrently. A failed upload clears the corresponding key and the
// report survives without that asset.
func (ra *reportAssembler) persistMedia(ctx context.Context, report *types.SessionReport, rec *media.Recorder) {
	var (
		videoKey  string
		posterKey string
	)
	if rec != nil && rec.Size() > 0 {
		videoKey = fmt.Sprintf("session_video/%s/%s%s", report.UserID, report.ID, extensionForMime(rec.MimeType()))
	}

	g, gctx := errgroup.WithContext(ctx)

	if videoKey != "" {
		g.Go(func() error {
			if err := ra.bucket.UploadFile(gctx, videoKey, bytes.NewReader(rec.Bytes())); err != nil {
				ra.log.Warn("Failed to upload session video (report kept)", "report", report.ID, "error", err)
				videoKey = ""
			}
			return nil
		})
	}
	if ra.poster != nil {
		g.Go(func() error {
			buf, err := ra.poster.Render(report)
			if err != nil {
				ra.log.Warn("Failed to render report poster (report kept)", "report", report.ID, "error", err)
				return nil
			}
			key := fmt.Sprintf("report_poster/%s/%s.png", report.UserID, report.ID)
			if err := ra.bucket.UploadFile(gctx, key, bytes.NewReader(buf.Bytes())); err != nil {
				ra.log.Warn("Failed to upload report poster (report kept)", "report", report.ID, "error", err)
				return nil
			}
			posterKey = key
			return nil
		})
	}

	_ = g.Wait()
	report.VideoBlobKey = videoKey
	report.PosterBlobKey = posterKey
}

// enrichWithVideoLabels appends video intelligence labels to the report
// insights. Purely additive; any failure leaves the report untouched.
func (ra *reportAssembler) enrichWithVideoLabels(ctx context.Context, report *types.SessionReport) {
	if ra.video == nil || report.VideoBlobKey == "" {
		return
	}
	labels, err := ra.video.LabelVideoGCS(ctx, ra.bucket.GCSURI(report.VideoBlobKey), videoLabelLimit)
	if err != nil {
		ra.log.Warn("Video label enrichment failed (report kept)", "report", report.ID, "error", err)
		return
	}
	if len(labels) == 0 {
		return
	}
	report.KeyInsights = append(report.KeyInsights, "Detected activity: "+strings.Join(labels, ", "))
}

// evictOldest keeps the newest reportRetentionLimit reports per user and
// cascades blob deletion for everything older.
func (ra *reportAssembler) evictOldest(ctx context.Context, userID uuid.UUID) {
	evicted, err := ra.repo.EvictBeyond(ctx, nil, userID, ra.retention)
	if err != nil {
		ra.log.Warn("Report eviction failed", "user", userID, "error", err)
		return
	}
	for _, old := range evicted {
		ra.deleteBlobs(ctx, old)
		ra.log.Info("Evicted session report", "user", userID, "report", old.ID)
	}
}

func (ra *reportAssembler) Delete(ctx context.Context, userID, reportID uuid.UUID) error {
	report, err := ra.repo.GetByID(ctx, nil, reportID)
	if err != nil {
		return fmt.Errorf("load report %s: %w", reportID, err)
	}
	if report == nil || report.UserID != userID {
		return fmt.Errorf("report %s not found", reportID)
	}
	if err := ra.repo.Delete(ctx, nil, reportID); err != nil {
		return fmt.Errorf("delete report %s: %w", reportID, err)
	}
	ra.deleteBlobs(ctx, report)
	return nil
}

func (ra *reportAssembler) deleteBlobs(ctx context.Context, report *types.SessionReport) {
	for _, key := range []string{report.VideoBlobKey, report.PosterBlobKey} {
		if key == "" {
			continue
		}
		if err := ra.bucket.DeleteFile(ctx, key); err != nil {
			ra.log.Warn("Failed to delete report blob (ignored)", "report", report.ID, "key", key, "error", err)
		}
	}
}

func extensionForMime(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp4"):
		return ".mp4"
	default:
		return ".webm"
	}
}
