package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

// AudioSink delivers a finished utterance to whoever is playing it (the
// SSE notifier in production, a recorder in tests).
type AudioSink interface {
	PlayUtterance(sessionID uuid.UUID, audio []byte, text string)
}

// SpeechOutput speaks the latest suggestion for one session. At most one
// utterance is active; any change to the suggestion text, the enabled
// flag, or the live flag cancels an in-flight utterance before anything
// new starts. A nil synthesizer degrades to silent operation.
type SpeechOutput struct {
	log       *logger.Logger
	tts       gcp.TextToSpeech
	sink      AudioSink
	sessionID uuid.UUID

	mu         sync.Mutex
	generation int
	cancel     context.CancelFunc
	lastSpoken string
	voiceCache map[string]string
}

func NewSpeechOutput(log *logger.Logger, tts gcp.TextToSpeech, sink AudioSink, sessionID uuid.UUID) *SpeechOutput {
	return &SpeechOutput{
		log:        log.With("component", "SpeechOutput", "session_id", sessionID),
		tts:        tts,
		sink:       sink,
		sessionID:  sessionID,
		voiceCache: map[string]string{},
	}
}

// Update reacts to a change in (text, enabled, live). It always cancels
// first; it speaks only when enabled and live with a non-empty suggestion
// that has not already been spoken (so toggling voice back on does not
// replay the old utterance).
func (o *SpeechOutput) Update(text string, enabled, live bool, mentor *types.Mentor, language types.Language) {
	o.mu.Lock()
	o.generation++
	gen := o.generation
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	text = strings.TrimSpace(text)
	if !enabled || !live || text == "" || o.tts == nil || o.sink == nil {
		o.mu.Unlock()
		return
	}
	if text == o.lastSpoken {
		o.mu.Unlock()
		return
	}
	o.lastSpoken = text

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	o.cancel = cancel

	rate := mentor.VoiceRate
	if rate == 0 {
		rate = 1.0
	}
	pitch := mentor.VoicePitch
	o.mu.Unlock()

	go o.speak(ctx, gen, text, rate, pitch, language)
}

func (o *SpeechOutput) speak(ctx context.Context, gen int, text string, rate, pitch float64, language types.Language) {
	langTag := language.Tag()
	voice := o.selectVoice(ctx, langTag)

	audio, err := o.tts.Synthesize(ctx, gcp.SynthesizeRequest{
		Text:         text,
		LanguageCode: langTag,
		VoiceName:    voice,
		SpeakingRate: rate,
		Pitch:        pitch,
	})
	if err != nil {
		// Speech is best-effort; an utterance error never reaches the session.
		o.log.Debug("Utterance synthesis failed", "error", err)
		return
	}

	o.mu.Lock()
	stale := gen != o.generation
	o.mu.Unlock()
	if stale {
		return
	}

	o.sink.PlayUtterance(o.sessionID, audio, text)
}

// qualityHints marks voice names that tend to sound better than the
// plain standard voices.
var qualityHints = []string{"Natural", "Premium", "Enhanced", "Neural", "Studio", "Wavenet", "Google"}

func (o *SpeechOutput) selectVoice(ctx context.Context, langTag string) string {
	o.mu.Lock()
	if cached, ok := o.voiceCache[langTag]; ok {
		o.mu.Unlock()
		return cached
	}
	o.mu.Unlock()

	voice := pickVoice(o.listVoices(ctx, langTag), langTag)

	o.mu.Lock()
	o.voiceCache[langTag] = voice
	o.mu.Unlock()
	return voice
}

func (o *SpeechOutput) listVoices(ctx context.Context, langTag string) []gcp.VoiceInfo {
	voices, err := o.tts.ListVoices(ctx, langTag)
	if err != nil {
		o.log.Debug("Voice listing failed; using engine default", "error", err)
		return nil
	}
	return voices
}

// pickVoice prefers an exact language match whose name hints at higher
// quality, then any exact match, then any language-prefix match, then the
// engine default (empty name).
func pickVoice(voices []gcp.VoiceInfo, langTag string) string {
	prefix := langTag
	if i := strings.Index(langTag, "-"); i > 0 {
		prefix = langTag[:i]
	}

	var exact, prefixed string
	for _, v := range voices {
		for _, code := range v.LanguageCodes {
			if strings.EqualFold(code, langTag) {
				if hasQualityHint(v.Name) {
					return v.Name
				}
				if exact == "" {
					exact = v.Name
				}
			} else if strings.HasPrefix(strings.ToLower(code), strings.ToLower(prefix)) {
				if prefixed == "" {
					prefixed = v.Name
				}
			}
		}
	}
	if exact != "" {
		return exact
	}
	return prefixed
}

func hasQualityHint(name string) bool {
	for _, hint := range qualityHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// Cancel stops any in-flight utterance without starting a new one.
func (o *SpeechOutput) Cancel() {
	o.mu.Lock()
	o.generation++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()
}
