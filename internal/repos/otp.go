package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type OTPChallengeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, challenge *types.OTPChallenge) (*types.OTPChallenge, error)
	LatestActive(ctx context.Context, tx *gorm.DB, phone string, now time.Time) (*types.OTPChallenge, error)
	MarkConsumed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type otpChallengeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOTPChallengeRepo(db *gorm.DB, baseLog *logger.Logger) OTPChallengeRepo {
	return &otpChallengeRepo{db: db, log: baseLog.With("repo", "OTPChallengeRepo")}
}

func (r *otpChallengeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *otpChallengeRepo) Create(ctx context.Context, tx *gorm.DB, challenge *types.OTPChallenge) (*types.OTPChallenge, error) {
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	if err := r.conn(tx).WithContext(ctx).Create(challenge).Error; err != nil {
		return nil, err
	}
	return challenge, nil
}

func (r *otpChallengeRepo) LatestActive(ctx context.Context, tx *gorm.DB, phone string, now time.Time) (*types.OTPChallenge, error) {
	var challenge types.OTPChallenge
	err := r.conn(tx).WithContext(ctx).
		Where("phone = ? AND consumed = ? AND expires_at > ?", phone, false, now).
		Order("created_at DESC").
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *otpChallengeRepo) MarkConsumed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.OTPChallenge{}).
		Where("id = ?", id).
		Update("consumed", true).Error
}
