package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/clients/openai"
	"github.com/jairathnishant/MentorMe-AI/internal/clients/redis"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/utils"
)

type Clients struct {
	SSEBus       redis.SSEBus
	OpenaiClient openai.Client
	GcpBucket    gcp.BucketService
	GcpVision    gcp.Vision
	GcpSpeech    gcp.Speech
	GcpTTS       gcp.TextToSpeech
	GcpVideo     gcp.Video
}

// wireClients builds the external clients. The bucket and inference
// clients are required; redis and the GCP media capabilities are
// optional — a nil client means the corresponding feature runs disabled
// (no voice, no safety pre-check, no label enrichment).
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	var bus redis.SSEBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := redis.NewSSEBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		bus = b
	}

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	var vision gcp.Vision
	if utils.GetEnvAsBool("VISION_SAFETY_ENABLED", true, log) {
		v, err := gcp.NewVision(log)
		if err != nil {
			log.Warn("Vision client unavailable, safety pre-check disabled", "error", err)
		} else {
			vision = v
		}
	}

	var speech gcp.Speech
	if utils.GetEnvAsBool("SPEECH_INPUT_ENABLED", true, log) {
		s, err := gcp.NewSpeech(log)
		if err != nil {
			log.Warn("Speech client unavailable, voice input disabled", "error", err)
		} else {
			speech = s
		}
	}

	var tts gcp.TextToSpeech
	if utils.GetEnvAsBool("SPEECH_OUTPUT_ENABLED", true, log) {
		t, err := gcp.NewTextToSpeech(log)
		if err != nil {
			log.Warn("TTS client unavailable, voice output disabled", "error", err)
		} else {
			tts = t
		}
	}

	var video gcp.Video
	if utils.GetEnvAsBool("VIDEO_LABELS_ENABLED", true, log) {
		v, err := gcp.NewVideo(log)
		if err != nil {
			log.Warn("Video intelligence client unavailable, label enrichment disabled", "error", err)
		} else {
			video = v
		}
	}

	return Clients{
		SSEBus:       bus,
		OpenaiClient: openaiClient,
		GcpBucket:    bucket,
		GcpVision:    vision,
		GcpSpeech:    speech,
		GcpTTS:       tts,
		GcpVideo:     video,
	}, nil
}
