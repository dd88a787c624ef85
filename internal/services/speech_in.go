package services

import (
	"context"
	"errors"
	"sync"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

// SpeechInput performs one-shot utterance recognition for a session.
// "No speech" and "permission denied" are expected, frequent conditions
// and stay silent; anything else is logged and swallowed — recognition
// never interrupts a session. A nil recognizer disables the feature.
type SpeechInput struct {
	log    *logger.Logger
	speech gcp.Speech

	mu        sync.Mutex
	listening bool
}

func NewSpeechInput(log *logger.Logger, speech gcp.Speech) *SpeechInput {
	return &SpeechInput{
		log:    log.With("component", "SpeechInput"),
		speech: speech,
	}
}

func (i *SpeechInput) Listening() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.listening
}

// Listen transcribes a single utterance. It returns ok=false (with an
// empty transcript) for every non-result, clearing the listening flag on
// all paths.
func (i *SpeechInput) Listen(ctx context.Context, audio []byte, mimeType string, language types.Language) (string, bool) {
	if i.speech == nil {
		return "", false
	}

	i.mu.Lock()
	i.listening = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.listening = false
		i.mu.Unlock()
	}()

	transcript, err := i.speech.TranscribeUtterance(ctx, audio, mimeType, language.Tag())
	if err != nil {
		if errors.Is(err, gcp.ErrNoSpeech) || errors.Is(err, gcp.ErrSpeechPermissionDenied) {
			return "", false
		}
		i.log.Warn("Utterance recognition failed", "error", err)
		return "", false
	}
	return transcript, true
}
