package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type fakeTTS struct {
	voices []gcp.VoiceInfo
}

func (f *fakeTTS) ListVoices(ctx context.Context, languageCode string) ([]gcp.VoiceInfo, error) {
	return f.voices, nil
}

func (f *fakeTTS) Synthesize(ctx context.Context, req gcp.SynthesizeRequest) ([]byte, error) {
	return []byte("mp3:" + req.Text), nil
}

func (f *fakeTTS) Close() error { return nil }

type channelSink struct {
	mu    sync.Mutex
	texts []string
	ch    chan string
}

func newChannelSink() *channelSink {
	return &channelSink{ch: make(chan string, 8)}
}

func (s *channelSink) PlayUtterance(sessionID uuid.UUID, audio []byte, text string) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
	s.ch <- text
}

func (s *channelSink) wait(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-s.ch:
		if got != want {
			t.Fatalf("played %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no utterance played, want %q", want)
	}
}

func (s *channelSink) expectSilence(t *testing.T) {
	t.Helper()
	select {
	case got := <-s.ch:
		t.Fatalf("unexpected utterance %q", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestPickVoice(t *testing.T) {
	voices := []gcp.VoiceInfo{
		{Name: "en-US-Standard-A", LanguageCodes: []string{"en-US"}},
		{Name: "en-US-Neural2-F", LanguageCodes: []string{"en-US"}},
		{Name: "en-GB-Standard-B", LanguageCodes: []string{"en-GB"}},
		{Name: "es-ES-Standard-A", LanguageCodes: []string{"es-ES"}},
	}

	cases := []struct {
		name    string
		voices  []gcp.VoiceInfo
		langTag string
		want    string
	}{
		{"quality hint wins over plain exact match", voices, "en-US", "en-US-Neural2-F"},
		{"plain exact match when no quality hint", voices, "es-ES", "es-ES-Standard-A"},
		{"language prefix fallback", []gcp.VoiceInfo{
			{Name: "en-GB-Standard-B", LanguageCodes: []string{"en-GB"}},
		}, "en-US", "en-GB-Standard-B"},
		{"engine default when nothing matches", voices, "hi-IN", ""},
		{"engine default on empty listing", nil, "en-US", ""},
		{"case-insensitive exact match", []gcp.VoiceInfo{
			{Name: "EN-us-Wavenet-C", LanguageCodes: []string{"EN-us"}},
		}, "en-US", "EN-us-Wavenet-C"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pickVoice(tc.voices, tc.langTag); got != tc.want {
				t.Fatalf("pickVoice(%q) = %q, want %q", tc.langTag, got, tc.want)
			}
		})
	}
}

func TestSpeechOutputSpeaksNewSuggestion(t *testing.T) {
	sink := newChannelSink()
	out := NewSpeechOutput(logger.NewNop(), &fakeTTS{}, sink, uuid.New())
	mentor := &types.Mentor{ID: "fitness-trainer", Name: "Fitness Trainer", VoiceRate: 1.0}

	out.Update("straighten your back", true, true, mentor, types.LanguageEnglish)
	sink.wait(t, "straighten your back")
}

func TestSpeechOutputDoesNotRepeatUnchangedText(t *testing.T) {
	sink := newChannelSink()
	out := NewSpeechOutput(logger.NewNop(), &fakeTTS{}, sink, uuid.New())
	mentor := &types.Mentor{ID: "fitness-trainer", Name: "Fitness Trainer", VoiceRate: 1.0}

	out.Update("keep your elbows in", true, true, mentor, types.LanguageEnglish)
	sink.wait(t, "keep your elbows in")

	out.Update("keep your elbows in", true, true, mentor, types.LanguageEnglish)
	sink.expectSilence(t)
}

func TestSpeechOutputReenableDoesNotReplay(t *testing.T) {
	sink := newChannelSink()
	out := NewSpeechOutput(logger.NewNop(), &fakeTTS{}, sink, uuid.New())
	mentor := &types.Mentor{ID: "chef", Name: "Cooking Coach", VoiceRate: 1.0}

	out.Update("lower the heat", true, true, mentor, types.LanguageEnglish)
	sink.wait(t, "lower the heat")

	out.Update("lower the heat", false, true, mentor, types.LanguageEnglish)
	out.Update("lower the heat", true, true, mentor, types.LanguageEnglish)
	sink.expectSilence(t)
}

func TestSpeechOutputSilentWhenDisabledOrNotLive(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		enabled bool
		live    bool
	}{
		{"disabled", "some advice", false, true},
		{"not live", "some advice", true, false},
		{"empty text", "   ", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newChannelSink()
			out := NewSpeechOutput(logger.NewNop(), &fakeTTS{}, sink, uuid.New())
			mentor := &types.Mentor{ID: "m", Name: "M", VoiceRate: 1.0}

			out.Update(tc.text, tc.enabled, tc.live, mentor, types.LanguageEnglish)
			sink.expectSilence(t)
		})
	}
}

func TestSpeechOutputNilSynthesizerIsSilent(t *testing.T) {
	sink := newChannelSink()
	out := NewSpeechOutput(logger.NewNop(), nil, sink, uuid.New())
	mentor := &types.Mentor{ID: "m", Name: "M", VoiceRate: 1.0}

	out.Update("hello", true, true, mentor, types.LanguageEnglish)
	sink.expectSilence(t)
}

func TestSpeechOutputVoiceCachePerLanguage(t *testing.T) {
	tts := &fakeTTS{voices: []gcp.VoiceInfo{
		{Name: "en-US-Neural2-F", LanguageCodes: []string{"en-US"}},
	}}
	sink := newChannelSink()
	out := NewSpeechOutput(logger.NewNop(), tts, sink, uuid.New())

	ctx := context.Background()
	first := out.selectVoice(ctx, "en-US")
	tts.voices = nil
	second := out.selectVoice(ctx, "en-US")

	if first != "en-US-Neural2-F" || second != first {
		t.Fatalf("voice cache miss: first=%q second=%q", first, second)
	}
}
