package app

import (
	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	OTPChallenge  repos.OTPChallengeRepo
	Mentor        repos.MentorRepo
	SessionReport repos.SessionReportRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		OTPChallenge:  repos.NewOTPChallengeRepo(db, log),
		Mentor:        repos.NewMentorRepo(db, log),
		SessionReport: repos.NewSessionReportRepo(db, log),
	}
}
