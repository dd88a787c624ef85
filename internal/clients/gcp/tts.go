package gcp

import (
	"context"
	"fmt"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/pkg/ctxutil"
)

type VoiceInfo struct {
	Name          string
	LanguageCodes []string
}

type SynthesizeRequest struct {
	Text         string
	LanguageCode string
	VoiceName    string
	SpeakingRate float64 // 0.25-4.0, 1.0 neutral
	Pitch        float64 // -20.0-20.0 semitones, 0 neutral
}

// TextToSpeech is the synthesis backend for the speech output controller.
type TextToSpeech interface {
	ListVoices(ctx context.Context, languageCode string) ([]VoiceInfo, error)
	Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error)
	Close() error
}

type ttsService struct {
	log    *logger.Logger
	client *texttospeech.Client
}

func NewTextToSpeech(log *logger.Logger) (TextToSpeech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.TextToSpeech")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	c, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}

	return &ttsService{log: slog, client: c}, nil
}

func (s *ttsService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *ttsService) ListVoices(ctx context.Context, languageCode string) ([]VoiceInfo, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := s.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{
		LanguageCode: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("tts list voices: %w", err)
	}
	out := make([]VoiceInfo, 0, len(resp.GetVoices()))
	for _, v := range resp.GetVoices() {
		out = append(out, VoiceInfo{
			Name:          v.GetName(),
			LanguageCodes: v.GetLanguageCodes(),
		})
	}
	return out, nil
}

func (s *ttsService) Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if req.Text == "" {
		return nil, fmt.Errorf("text required")
	}
	lang := req.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	rate := req.SpeakingRate
	if rate == 0 {
		rate = 1.0
	}

	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         req.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  rate,
			Pitch:         req.Pitch,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: %w", err)
	}
	return resp.GetAudioContent(), nil
}
