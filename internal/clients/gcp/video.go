package gcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	vipb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/pkg/ctxutil"
)

// Video labels a recorded session straight from the media bucket. The
// report assembler folds the top labels into the report's insight list;
// the whole step is best-effort.
type Video interface {
	LabelVideoGCS(ctx context.Context, gcsURI string, maxLabels int) ([]string, error)
	Close() error
}

type videoService struct {
	log        *logger.Logger
	client     *videointelligence.Client
	maxRetries int
}

func NewVideo(log *logger.Logger) (Video, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Video")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	c, err := videointelligence.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("videointelligence client: %w", err)
	}

	return &videoService{
		log:        slog,
		client:     c,
		maxRetries: 2,
	}, nil
}

func (s *videoService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *videoService) LabelVideoGCS(ctx context.Context, gcsURI string, maxLabels int) ([]string, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}
	if maxLabels <= 0 {
		maxLabels = 5
	}

	req := &vipb.AnnotateVideoRequest{
		InputUri: gcsURI,
		Features: []vipb.Feature{vipb.Feature_LABEL_DETECTION},
	}

	resp, err := s.retryAnnotate(ctx, func() (*vipb.AnnotateVideoResponse, error) {
		op, err := s.client.AnnotateVideo(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("videointelligence AnnotateVideo: %w", err)
	}
	if resp == nil || len(resp.AnnotationResults) == 0 || resp.AnnotationResults[0] == nil {
		return nil, nil
	}

	type scoredLabel struct {
		name  string
		score float32
	}
	labels := []scoredLabel{}
	for _, ann := range resp.AnnotationResults[0].GetSegmentLabelAnnotations() {
		name := strings.TrimSpace(ann.GetEntity().GetDescription())
		if name == "" {
			continue
		}
		var best float32
		for _, seg := range ann.GetSegments() {
			if seg.GetConfidence() > best {
				best = seg.GetConfidence()
			}
		}
		labels = append(labels, scoredLabel{name: name, score: best})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].score > labels[j].score })

	out := make([]string, 0, maxLabels)
	for _, l := range labels {
		out = append(out, l.name)
		if len(out) == maxLabels {
			break
		}
	}
	return out, nil
}

func (s *videoService) retryAnnotate(ctx context.Context, fn func() (*vipb.AnnotateVideoResponse, error)) (*vipb.AnnotateVideoResponse, error) {
	backoff := time.Second
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, last
}
