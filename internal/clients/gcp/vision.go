package gcp

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/pkg/ctxutil"
)

// SafeSearchVerdict is the moderation read on a single captured frame.
type SafeSearchVerdict struct {
	Adult    string `json:"adult"`
	Violence string `json:"violence"`
	Racy     string `json:"racy"`
	Unsafe   bool   `json:"unsafe"`
}

// Vision screens captured frames before they reach the analysis model.
// This is a best-effort moderation hint, not a guarantee.
type Vision interface {
	SafeSearchImage(ctx context.Context, img []byte) (*SafeSearchVerdict, error)
	Close() error
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{log: slog, client: c}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *visionService) SafeSearchImage(ctx context.Context, img []byte) (*SafeSearchVerdict, error) {
	if len(img) == 0 {
		return &SafeSearchVerdict{}, nil
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, err := s.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: img},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_SAFE_SEARCH_DETECTION},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision safe search: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return &SafeSearchVerdict{}, nil
	}
	ann := resp.GetResponses()[0].GetSafeSearchAnnotation()
	if ann == nil {
		return &SafeSearchVerdict{}, nil
	}

	verdict := &SafeSearchVerdict{
		Adult:    ann.GetAdult().String(),
		Violence: ann.GetViolence().String(),
		Racy:     ann.GetRacy().String(),
	}
	verdict.Unsafe = likelihoodAtLeast(ann.GetAdult(), visionpb.Likelihood_LIKELY) ||
		likelihoodAtLeast(ann.GetViolence(), visionpb.Likelihood_LIKELY)
	return verdict, nil
}

func likelihoodAtLeast(l visionpb.Likelihood, threshold visionpb.Likelihood) bool {
	if l == visionpb.Likelihood_UNKNOWN {
		return false
	}
	return l >= threshold
}
