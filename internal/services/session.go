package services

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
	"github.com/jairathnishant/MentorMe-AI/internal/utils"
)

// StartSessionRequest carries everything the client knows at session
// start, including the device-access outcome it observed.
type StartSessionRequest struct {
	Mode     types.SessionMode  `json:"mode"`
	MentorID string             `json:"mentor_id"`
	Language types.Language     `json:"language,omitempty"`
	Grant    media.CaptureGrant `json:"grant"`
}

// SessionService owns the registry of live sessions and is the entry
// point for every per-session operation coming off the HTTP surface.
type SessionService interface {
	Start(ctx context.Context, userID uuid.UUID, req StartSessionRequest) (SessionSnapshot, error)
	Status(userID, sessionID uuid.UUID) (SessionSnapshot, error)
	PushFrame(userID, sessionID uuid.UUID, img image.Image) error
	PushChunk(userID, sessionID uuid.UUID, chunk []byte, mimeType string) error
	Speak(ctx context.Context, userID, sessionID uuid.UUID, audio []byte, mimeType string) (string, bool, error)
	ClearTranscript(userID, sessionID uuid.UUID) error
	SetVoiceEnabled(userID, sessionID uuid.UUID, enabled bool) error
	Stop(ctx context.Context, userID, sessionID uuid.UUID) (SessionSnapshot, error)
}

type sessionService struct {
	log      *logger.Logger
	mentors  MentorService
	userRepo repos.UserRepo
	deps     sessionDeps

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewSessionService(
	log *logger.Logger,
	mentors MentorService,
	userRepo repos.UserRepo,
	provider media.CaptureProvider,
	analysis AnalysisService,
	reports ReportAssembler,
	notifier SessionNotifier,
	tts gcp.TextToSpeech,
	speech gcp.Speech,
) SessionService {
	serviceLog := log.With("service", "SessionService")
	maxSeconds := utils.GetEnvAsInt("SESSION_MAX_DURATION_SECONDS", 120, serviceLog)
	return &sessionService{
		log:      serviceLog,
		mentors:  mentors,
		userRepo: userRepo,
		deps: sessionDeps{
			log:         serviceLog,
			provider:    provider,
			analysis:    analysis,
			reports:     reports,
			notifier:    notifier,
			tts:         tts,
			speech:      speech,
			maxDuration: time.Duration(maxSeconds) * time.Second,
		},
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (ss *sessionService) Start(ctx context.Context, userID uuid.UUID, req StartSessionRequest) (SessionSnapshot, error) {
	if req.Mode != types.ModeCamera && req.Mode != types.ModeScreen {
		return SessionSnapshot{}, fmt.Errorf("unknown session mode %q", req.Mode)
	}

	mentor, err := ss.mentors.Get(ctx, req.MentorID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if !mentor.SupportsMode(req.Mode) {
		return SessionSnapshot{}, fmt.Errorf("mentor %q does not support %s sessions", mentor.Name, req.Mode)
	}

	language := req.Language
	if language == "" {
		if user, err := ss.userRepo.GetByID(ctx, nil, userID); err == nil && user != nil && user.Language != "" {
			language = user.Language
		} else {
			language = types.LanguageEnglish
		}
	}

	session := newSession(userID, req.Mode, mentor, language, ss.deps)

	ss.mu.Lock()
	// One live session per user: anything older is torn down first.
	for id, old := range ss.sessions {
		if old.UserID != userID {
			continue
		}
		if old.Snapshot().State == SessionLive {
			go func(s *Session) { _, _ = s.Stop(context.Background()) }(old)
		}
		delete(ss.sessions, id)
	}
	ss.sessions[session.ID] = session
	ss.mu.Unlock()

	// Start can fail into the error state; the session stays registered so
	// the client can read the denial-specific message.
	_ = session.Start(ctx, req.Grant)
	return session.Snapshot(), nil
}

func (ss *sessionService) get(userID, sessionID uuid.UUID) (*Session, error) {
	ss.mu.Lock()
	session, ok := ss.sessions[sessionID]
	ss.mu.Unlock()
	if !ok || session.UserID != userID {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return session, nil
}

func (ss *sessionService) Status(userID, sessionID uuid.UUID) (SessionSnapshot, error) {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

func (ss *sessionService) PushFrame(userID, sessionID uuid.UUID, img image.Image) error {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return err
	}
	session.PushFrame(img)
	return nil
}

func (ss *sessionService) PushChunk(userID, sessionID uuid.UUID, chunk []byte, mimeType string) error {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return err
	}
	session.PushChunk(chunk, mimeType)
	return nil
}

func (ss *sessionService) Speak(ctx context.Context, userID, sessionID uuid.UUID, audio []byte, mimeType string) (string, bool, error) {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return "", false, err
	}
	transcript, ok := session.Speak(ctx, audio, mimeType)
	return transcript, ok, nil
}

func (ss *sessionService) ClearTranscript(userID, sessionID uuid.UUID) error {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return err
	}
	session.ClearTranscript()
	return nil
}

func (ss *sessionService) SetVoiceEnabled(userID, sessionID uuid.UUID, enabled bool) error {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return err
	}
	session.SetVoiceEnabled(enabled)
	return nil
}

func (ss *sessionService) Stop(ctx context.Context, userID, sessionID uuid.UUID) (SessionSnapshot, error) {
	session, err := ss.get(userID, sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if _, err := session.Stop(ctx); err != nil {
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}
