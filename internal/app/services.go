package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/services"
	"github.com/jairathnishant/MentorMe-AI/internal/sse"
)

type Services struct {
	Notifier services.SessionNotifier
	Analysis services.AnalysisService
	Poster   services.PosterRenderer
	Reports  services.ReportAssembler
	Mentor   services.MentorService
	Session  services.SessionService
	Auth     services.AuthService
	User     services.UserService
}

func wireServices(db *gorm.DB, log *logger.Logger, clients Clients, reposet Repos, hub *sse.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	notifier := services.NewSessionNotifier(log, hub, clients.SSEBus)

	analysis, err := services.NewAnalysisService(log, clients.OpenaiClient, clients.GcpVision)
	if err != nil {
		return Services{}, fmt.Errorf("init analysis service: %w", err)
	}

	poster, err := services.NewPosterRenderer(log)
	if err != nil {
		return Services{}, fmt.Errorf("init poster renderer: %w", err)
	}

	reports := services.NewReportAssembler(log, analysis, poster, clients.GcpBucket, clients.GcpVideo, reposet.SessionReport)

	mentor, err := services.NewMentorService(log, reposet.Mentor)
	if err != nil {
		return Services{}, fmt.Errorf("init mentor service: %w", err)
	}

	session := services.NewSessionService(
		log,
		mentor,
		reposet.User,
		media.NewIngestProvider(log),
		analysis,
		reports,
		notifier,
		clients.GcpTTS,
		clients.GcpSpeech,
	)

	auth, err := services.NewAuthService(db, log, reposet.User, reposet.UserToken, reposet.OTPChallenge)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	user := services.NewUserService(log, reposet.User)

	return Services{
		Notifier: notifier,
		Analysis: analysis,
		Poster:   poster,
		Reports:  reports,
		Mentor:   mentor,
		Session:  session,
		Auth:     auth,
		User:     user,
	}, nil
}
