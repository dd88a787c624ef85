package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type fakeSummarizer struct {
	summary *types.SessionSummary
	err     error
}

func (f *fakeSummarizer) Analyze(ctx context.Context, frame []byte, mentor *types.Mentor, language types.Language, instruction string) *types.AnalysisPoint {
	return &types.AnalysisPoint{SafetyStatus: types.SafetySafe}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, points []types.AnalysisPoint, mentor *types.Mentor, language types.Language) (*types.SessionSummary, error) {
	return f.summary, f.err
}

type fakeBucket struct {
	mu         sync.Mutex
	uploads    []string
	deletes    []string
	failUpload string // key prefix that fails
}

func (b *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failUpload != "" && strings.HasPrefix(key, b.failUpload) {
		return errors.New("upload refused")
	}
	b.uploads = append(b.uploads, key)
	return nil
}

func (b *fakeBucket) DeleteFile(ctx context.Context, key string) error {
	b.mu.Lock()
	b.deletes = append(b.deletes, key)
	b.mu.Unlock()
	return nil
}

func (b *fakeBucket) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (b *fakeBucket) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

func (b *fakeBucket) GetPublicURL(key string) string { return "https://bucket.test/" + key }
func (b *fakeBucket) GCSURI(key string) string       { return "gs://bucket-test/" + key }

type fakeVideoLabels struct {
	labels []string
	err    error
}

func (v *fakeVideoLabels) LabelVideoGCS(ctx context.Context, gcsURI string, maxLabels int) ([]string, error) {
	return v.labels, v.err
}

func (v *fakeVideoLabels) Close() error { return nil }

type memReportRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*types.SessionReport
	evicted []*types.SessionReport
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{rows: map[uuid.UUID]*types.SessionReport{}}
}

func (r *memReportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.SessionReport) (*types.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.CreatedAt = time.Now()
	r.rows[report.ID] = report
	return report, nil
}

func (r *memReportRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id], nil
}

func (r *memReportRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.SessionReport
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memReportRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	delete(r.rows, id)
	r.mu.Unlock()
	return nil
}

func (r *memReportRepo) EvictBeyond(ctx context.Context, tx *gorm.DB, userID uuid.UUID, keep int) ([]*types.SessionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.evicted
	r.evicted = nil
	for _, row := range out {
		delete(r.rows, row.ID)
	}
	return out, nil
}

func goodSummary() *types.SessionSummary {
	return &types.SessionSummary{
		KeyInsights:  []string{"solid pace", "good form", "watch the lighting"},
		OverallScore: 78,
	}
}

func recorderWith(chunk string, mime string) *media.Recorder {
	rec := media.NewRecorder()
	rec.Append([]byte(chunk), mime)
	return rec
}

func reportInput(rec *media.Recorder) ReportInput {
	start := time.Now().Add(-90 * time.Second)
	return ReportInput{
		UserID:    uuid.New(),
		Mentor:    &types.Mentor{ID: "fitness-trainer", Name: "Fitness Trainer"},
		Language:  types.LanguageEnglish,
		StartTime: start,
		EndTime:   start.Add(90 * time.Second),
		Timeline:  []types.AnalysisPoint{{PostureScore: 7, Suggestion: "ok", SafetyStatus: types.SafetySafe}},
		Recorder:  rec,
	}
}

func TestAssembleSummarizeFailureIsFatal(t *testing.T) {
	ra := NewReportAssembler(logger.NewNop(),
		&fakeSummarizer{err: errors.New("upstream down")},
		nil, &fakeBucket{}, nil, newMemReportRepo())

	if _, err := ra.Assemble(context.Background(), reportInput(nil)); err == nil {
		t.Fatal("a failed summary must fail assembly")
	}
}

func TestAssemblePersistsVideoAndMetadata(t *testing.T) {
	bucket := &fakeBucket{}
	repo := newMemReportRepo()
	ra := NewReportAssembler(logger.NewNop(), &fakeSummarizer{summary: goodSummary()},
		nil, bucket, nil, repo)

	in := reportInput(recorderWith("webm-bytes", "video/webm"))
	report, err := ra.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if report.ActivityType != "Fitness Trainer" {
		t.Fatalf("activity = %q, want the mentor name", report.ActivityType)
	}
	if report.DurationSeconds != 90 {
		t.Fatalf("duration = %d, want 90", report.DurationSeconds)
	}
	if report.OverallScore != 78 {
		t.Fatalf("score = %d, want 78", report.OverallScore)
	}
	if !strings.HasSuffix(report.VideoBlobKey, ".webm") {
		t.Fatalf("video key = %q, want a .webm key", report.VideoBlobKey)
	}
	if len(bucket.uploads) != 1 || bucket.uploads[0] != report.VideoBlobKey {
		t.Fatalf("uploads = %v, want exactly the video key", bucket.uploads)
	}
	if stored, _ := repo.GetByID(context.Background(), nil, report.ID); stored == nil {
		t.Fatal("report not persisted")
	}
}

func TestAssembleUploadFailureKeepsReport(t *testing.T) {
	bucket := &fakeBucket{failUpload: "session_video/"}
	ra := NewReportAssembler(logger.NewNop(), &fakeSummarizer{summary: goodSummary()},
		nil, bucket, nil, newMemReportRepo())

	report, err := ra.Assemble(context.Background(), reportInput(recorderWith("bytes", "video/mp4")))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if report.VideoBlobKey != "" {
		t.Fatalf("video key = %q, want empty after a failed upload", report.VideoBlobKey)
	}
}

func TestAssembleVideoLabelEnrichment(t *testing.T) {
	bucket := &fakeBucket{}
	video := &fakeVideoLabels{labels: []string{"yoga", "stretching"}}
	ra := NewReportAssembler(logger.NewNop(), &fakeSummarizer{summary: goodSummary()},
		nil, bucket, video, newMemReportRepo())

	report, err := ra.Assemble(context.Background(), reportInput(recorderWith("bytes", "video/mp4")))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	last := report.KeyInsights[len(report.KeyInsights)-1]
	if last != "Detected activity: yoga, stretching" {
		t.Fatalf("last insight = %q, want the detected-activity line", last)
	}
}

func TestAssembleLabelFailureIsNonFatal(t *testing.T) {
	video := &fakeVideoLabels{err: errors.New("quota")}
	ra := NewReportAssembler(logger.NewNop(), &fakeSummarizer{summary: goodSummary()},
		nil, &fakeBucket{}, video, newMemReportRepo())

	report, err := ra.Assemble(context.Background(), reportInput(recorderWith("bytes", "video/mp4")))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(report.KeyInsights) != 3 {
		t.Fatalf("insights = %v, want the summary untouched", report.KeyInsights)
	}
}

func TestAssembleEvictionCascadesBlobDeletion(t *testing.T) {
	bucket := &fakeBucket{}
	repo := newMemReportRepo()
	old := &types.SessionReport{
		ID:            uuid.New(),
		VideoBlobKey:  "session_video/u/old.webm",
		PosterBlobKey: "report_poster/u/old.png",
	}
	repo.evicted = []*types.SessionReport{old}

	ra := NewReportAssembler(logger.NewNop(), &fakeSummarizer{summary: goodSummary()},
		nil, bucket, nil, repo)

	if _, err := ra.Assemble(context.Background(), reportInput(nil)); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(bucket.deletes) != 2 {
		t.Fatalf("deletes = %v, want both evicted blob keys", bucket.deletes)
	}
}

func TestDeleteChecksOwnership(t *testing.T) {
	bucket := &fakeBucket{}
	repo := newMemReportRepo()
	owner := uuid.New()
	report := &types.SessionReport{ID: uuid.New(), UserID: owner, VideoBlobKey: "session_video/u/r.webm"}
	repo.rows[report.ID] = report

	ra := NewReportAssembler(logger.NewNop(), &fakeSummarizer{summary: goodSummary()},
		nil, bucket, nil, repo)

	if err := ra.Delete(context.Background(), uuid.New(), report.ID); err == nil {
		t.Fatal("deleting another user's report must fail")
	}
	if err := ra.Delete(context.Background(), owner, report.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(bucket.deletes) != 1 || bucket.deletes[0] != "session_video/u/r.webm" {
		t.Fatalf("deletes = %v, want the report's video blob", bucket.deletes)
	}
}

func TestExtensionForMime(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{"video/mp4", ".mp4"},
		{"video/webm", ".webm"},
		{"video/webm;codecs=vp9", ".webm"},
		{"", ".webm"},
	}
	for _, tc := range cases {
		if got := extensionForMime(tc.mime); got != tc.want {
			t.Fatalf("extensionForMime(%q) = %q, want %q", tc.mime, got, tc.want)
		}
	}
}
