package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/sampler"
	"github.com/jairathnishant/MentorMe-AI/internal/sse"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type SessionState string

const (
	SessionIdle    SessionState = "idle"
	SessionLive    SessionState = "live"
	SessionStopped SessionState = "stopped"
	SessionErrored SessionState = "error"
)

const (
	tickIntervalRecording = 20 * time.Second
	tickIntervalCocreate  = 10 * time.Second
	warmupDelay           = 3 * time.Second
)

// User-facing messages. Device-access denials must stay distinguishable.
const (
	msgPermissionDenied = "Capture permission was denied or cancelled. Allow camera or screen access and try again."
	msgPolicyBlocked    = "Capture is blocked by this page's hosting policy."
	msgCaptureFailed    = "Could not start capture. Check your device and try again."
	msgSafetyAlert      = "SAFETY ALERT: potentially unsafe content was detected. The session has been terminated."
	msgSessionStopped   = "Session stopped. Great work!"
	msgReportFailed     = "failed to process session"
)

// sessionDeps is the capability set a session runs against. Everything is
// injected; the loop never reaches for a global.
type sessionDeps struct {
	log         *logger.Logger
	provider    media.CaptureProvider
	analysis    AnalysisService
	reports     ReportAssembler
	notifier    SessionNotifier
	tts         gcp.TextToSpeech
	speech      gcp.Speech
	maxDuration time.Duration
}

// Session is one live coaching session: a camera recording session that
// accumulates a timeline and ends in a report, or a screen co-creation
// session that keeps only the latest point. All mutable state sits behind
// one mutex; the periodic work runs on a single goroutine.
type Session struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Mode     types.SessionMode
	Mentor   *types.Mentor
	Language types.Language

	deps      sessionDeps
	log       *logger.Logger
	speechOut *SpeechOutput
	speechIn  *SpeechInput

	mu            sync.Mutex
	state         SessionState
	errMsg        string
	suggestion    string
	activityLabel string
	latest        *types.AnalysisPoint
	history       []types.AnalysisPoint
	transcript    string
	voiceEnabled  bool
	seq           uint64
	appliedSeq    uint64
	startedAt     time.Time
	stream        *media.Stream
	recorder      *media.Recorder
	frames        *sampler.Sampler
	report        *types.SessionReport

	ticker   *time.Ticker
	warmup   *time.Timer
	deadline *time.Timer
	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newSession(userID uuid.UUID, mode types.SessionMode, mentor *types.Mentor, language types.Language, deps sessionDeps) *Session {
	id := uuid.New()
	return &Session{
		ID:        id,
		UserID:    userID,
		Mode:      mode,
		Mentor:    mentor,
		Language:  language,
		deps:      deps,
		log:       deps.log.With("session", id),
		speechOut: NewSpeechOutput(deps.log, deps.tts, deps.notifier, id),
		speechIn:  NewSpeechInput(deps.log, deps.speech),
		state:     SessionIdle,
		trigger:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start acquires the capture stream and enters Live. An acquisition
// failure lands in the error state with a denial-specific message and no
// timers running.
func (s *Session) Start(ctx context.Context, grant media.CaptureGrant) error {
	stream, err := s.deps.provider.Acquire(ctx, s.Mode, grant)
	if err != nil {
		msg := msgCaptureFailed
		switch {
		case errors.Is(err, media.ErrPermissionDenied):
			msg = msgPermissionDenied
		case errors.Is(err, media.ErrPolicyBlocked):
			msg = msgPolicyBlocked
		}
		s.mu.Lock()
		s.state = SessionErrored
		s.errMsg = msg
		s.mu.Unlock()
		s.publishState()
		s.deps.notifier.Publish(s.ID, sse.SSEEventSessionError, map[string]any{"message": msg})
		s.log.Warn("Capture acquisition failed", "mode", s.Mode, "error", err)
		return err
	}

	welcome := s.welcomeMessage()
	interval := tickIntervalCocreate
	if s.Mode == types.ModeCamera {
		interval = tickIntervalRecording
	}

	s.mu.Lock()
	s.state = SessionLive
	s.startedAt = time.Now()
	s.stream = stream
	s.frames = sampler.New(stream.Video(), sampler.ConfigForMode(s.Mode))
	s.suggestion = welcome
	if s.Mode == types.ModeCamera {
		s.recorder = media.NewRecorder()
		s.warmup = time.NewTimer(warmupDelay)
		s.deadline = time.NewTimer(s.deps.maxDuration)
	}
	s.ticker = time.NewTicker(interval)
	s.mu.Unlock()

	// External revocation, e.g. the OS screen-share toolbar. Stop is a
	// no-op if the session already left Live.
	if t := stream.VideoTrack(); t != nil {
		t.OnEnded(func() {
			s.log.Info("Capture track ended externally, stopping session")
			go func() { _, _ = s.Stop(context.Background()) }()
		})
	}

	go s.run()

	s.publishState()
	s.deps.notifier.Publish(s.ID, sse.SSEEventSuggestionUpdated, map[string]any{"suggestion": welcome})
	s.speechOut.Update(welcome, s.VoiceEnabled(), true, s.Mentor, s.Language)
	s.log.Info("Session live", "mode", s.Mode, "interval", interval)
	return nil
}

func (s *Session) welcomeMessage() string {
	name := "your mentor"
	if s.Mentor != nil && s.Mentor.Name != "" {
		name = s.Mentor.Name
	}
	return fmt.Sprintf("Hi! I'm %s. I'm watching along and will check in with feedback as you go.", name)
}

func (s *Session) run() {
	var warmupC, deadlineC <-chan time.Time
	if s.warmup != nil {
		warmupC = s.warmup.C
	}
	if s.deadline != nil {
		deadlineC = s.deadline.C
	}
	for {
		select {
		case <-s.stopCh:
			return
		case <-warmupC:
			warmupC = nil
			s.runCycle()
		case <-s.ticker.C:
			s.runCycle()
		case <-s.trigger:
			s.runCycle()
		case <-deadlineC:
			s.log.Info("Nominal session duration reached, stopping")
			if _, err := s.Stop(context.Background()); err != nil {
				s.log.Error("Auto-stop failed", "error", err)
			}
			return
		}
	}
}

// runCycle is one capture-and-analyze pass. A frame source that is not
// ready yet skips the tick silently; the result of a slow cycle is dropped
// if a later-issued cycle already applied or the session left Live.
func (s *Session) runCycle() {
	s.mu.Lock()
	if s.state != SessionLive {
		s.mu.Unlock()
		return
	}
	s.seq++
	mySeq := s.seq
	instruction := s.transcript
	frames := s.frames
	s.mu.Unlock()

	frame, ok := frames.Capture()
	if !ok {
		s.log.Debug("No frame available, skipping tick", "seq", mySeq)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tickIntervalRecording)
	defer cancel()
	point := s.deps.analysis.Analyze(ctx, frame, s.Mentor, s.Language, instruction)
	s.applyPoint(point, mySeq)
}

func (s *Session) applyPoint(point *types.AnalysisPoint, mySeq uint64) {
	s.mu.Lock()
	if s.state != SessionLive || mySeq < s.appliedSeq {
		s.mu.Unlock()
		return
	}
	s.appliedSeq = mySeq

	if point.SafetyStatus == types.SafetyUnsafe {
		s.teardownLocked()
		s.transcript = ""
		s.state = SessionErrored
		s.errMsg = msgSafetyAlert
		s.mu.Unlock()

		s.publishState()
		s.deps.notifier.Publish(s.ID, sse.SSEEventSessionError, map[string]any{"message": msgSafetyAlert})
		s.log.Warn("Unsafe content detected, session terminated", "seq", mySeq)
		return
	}

	if s.Mode == types.ModeCamera {
		s.history = append(s.history, *point)
	}
	s.latest = point
	s.suggestion = point.Suggestion
	if len(point.DetectedObjects) > 0 {
		s.activityLabel = strings.Join(point.DetectedObjects, ", ")
	}
	suggestion := s.suggestion
	voice := s.voiceEnabled
	s.mu.Unlock()

	s.deps.notifier.Publish(s.ID, sse.SSEEventAnalysisPoint, point)
	s.deps.notifier.Publish(s.ID, sse.SSEEventSuggestionUpdated, map[string]any{"suggestion": suggestion})
	s.speechOut.Update(suggestion, voice, true, s.Mentor, s.Language)
}

// Stop leaves Live, releasing the device synchronously. For recording
// sessions report assembly follows; its failure surfaces as an error state
// with the stream already torn down. Stopping a non-live session is a
// no-op returning whatever report already exists.
func (s *Session) Stop(ctx context.Context) (*types.SessionReport, error) {
	s.mu.Lock()
	if s.state != SessionLive {
		report := s.report
		s.mu.Unlock()
		return report, nil
	}
	s.teardownLocked()
	s.state = SessionStopped
	s.suggestion = msgSessionStopped
	history := make([]types.AnalysisPoint, len(s.history))
	copy(history, s.history)
	recorder := s.recorder
	startedAt := s.startedAt
	s.mu.Unlock()

	s.publishState()
	s.log.Info("Session stopped", "points", len(history))

	if s.Mode != types.ModeCamera {
		return nil, nil
	}

	flagged := false
	for _, p := range history {
		if p.SafetyStatus == types.SafetyUnknown {
			flagged = true
			break
		}
	}
	report, err := s.deps.reports.Assemble(ctx, ReportInput{
		UserID:    s.UserID,
		Mentor:    s.Mentor,
		Language:  s.Language,
		StartTime: startedAt,
		EndTime:   time.Now(),
		Timeline:  history,
		Recorder:  recorder,
		IsFlagged: flagged,
	})
	if err != nil {
		s.mu.Lock()
		s.state = SessionErrored
		s.errMsg = msgReportFailed
		s.mu.Unlock()
		s.publishState()
		s.deps.notifier.Publish(s.ID, sse.SSEEventSessionError, map[string]any{"message": msgReportFailed})
		return nil, err
	}

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	s.deps.notifier.Publish(s.ID, sse.SSEEventReportReady, report)
	return report, nil
}

// teardownLocked cancels timers, stops every track, and clears the stream
// handle. Runs on every exit path so the device is never left held.
// Caller holds s.mu.
func (s *Session) teardownLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.warmup != nil {
		s.warmup.Stop()
	}
	if s.deadline != nil {
		s.deadline.Stop()
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.stream != nil {
		s.stream.StopAll()
		s.stream.Video().Close()
		s.stream = nil
	}
	s.speechOut.Cancel()
}

// PushFrame feeds the latest captured frame into the mailbox. Frames for
// a non-live session are dropped.
func (s *Session) PushFrame(img image.Image) {
	s.mu.Lock()
	stream := s.stream
	live := s.state == SessionLive
	s.mu.Unlock()
	if !live || stream == nil {
		return
	}
	stream.Video().Publish(img)
}

// PushChunk appends recorded video bytes for the eventual report.
func (s *Session) PushChunk(chunk []byte, mimeType string) {
	s.mu.Lock()
	recorder := s.recorder
	live := s.state == SessionLive
	s.mu.Unlock()
	if !live || recorder == nil {
		return
	}
	recorder.Append(chunk, mimeType)
}

// Speak runs one-shot recognition on a spoken utterance. A transcript is
// retained as instruction context for subsequent ticks; in co-creation it
// also triggers one immediate out-of-band cycle without touching the
// schedule.
func (s *Session) Speak(ctx context.Context, audio []byte, mimeType string) (string, bool) {
	s.mu.Lock()
	live := s.state == SessionLive
	s.mu.Unlock()
	if !live {
		return "", false
	}

	transcript, ok := s.speechIn.Listen(ctx, audio, mimeType, s.Language)
	if !ok {
		return "", false
	}

	s.mu.Lock()
	s.transcript = transcript
	s.mu.Unlock()
	s.deps.notifier.Publish(s.ID, sse.SSEEventTranscript, map[string]any{"transcript": transcript})

	if s.Mode == types.ModeScreen {
		select {
		case s.trigger <- struct{}{}:
		default:
		}
	}
	return transcript, true
}

func (s *Session) ClearTranscript() {
	s.mu.Lock()
	s.transcript = ""
	s.mu.Unlock()
}

// SetVoiceEnabled flips voice output. Re-enabling with an unchanged
// suggestion does not replay it.
func (s *Session) SetVoiceEnabled(enabled bool) {
	s.mu.Lock()
	s.voiceEnabled = enabled
	suggestion := s.suggestion
	live := s.state == SessionLive
	s.mu.Unlock()
	s.speechOut.Update(suggestion, enabled, live, s.Mentor, s.Language)
}

func (s *Session) VoiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceEnabled
}

func (s *Session) Listening() bool {
	return s.speechIn.Listening()
}

// SessionSnapshot is the status view returned over HTTP.
type SessionSnapshot struct {
	ID            uuid.UUID            `json:"id"`
	Mode          types.SessionMode    `json:"mode"`
	State         SessionState         `json:"state"`
	ErrorMessage  string               `json:"error_message,omitempty"`
	Suggestion    string               `json:"suggestion"`
	ActivityLabel string               `json:"activity_label,omitempty"`
	Transcript    string               `json:"transcript,omitempty"`
	Listening     bool                 `json:"listening"`
	VoiceEnabled  bool                 `json:"voice_enabled"`
	LatestPoint   *types.AnalysisPoint `json:"latest_point,omitempty"`
	PointCount    int                  `json:"point_count"`
	StartedAt     time.Time            `json:"started_at"`
	ReportID      *uuid.UUID           `json:"report_id,omitempty"`
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SessionSnapshot{
		ID:            s.ID,
		Mode:          s.Mode,
		State:         s.state,
		ErrorMessage:  s.errMsg,
		Suggestion:    s.suggestion,
		ActivityLabel: s.activityLabel,
		Transcript:    s.transcript,
		Listening:     s.speechIn.Listening(),
		VoiceEnabled:  s.voiceEnabled,
		LatestPoint:   s.latest,
		PointCount:    len(s.history),
		StartedAt:     s.startedAt,
	}
	if s.report != nil {
		id := s.report.ID
		snap.ReportID = &id
	}
	return snap
}

func (s *Session) publishState() {
	s.mu.Lock()
	payload := map[string]any{"state": s.state}
	if s.errMsg != "" {
		payload["message"] = s.errMsg
	}
	s.mu.Unlock()
	s.deps.notifier.Publish(s.ID, sse.SSEEventSessionState, payload)
}
