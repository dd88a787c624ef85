package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type MentorRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, mentor *types.Mentor) (*types.Mentor, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Mentor, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Mentor, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type mentorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMentorRepo(db *gorm.DB, baseLog *logger.Logger) MentorRepo {
	return &mentorRepo{db: db, log: baseLog.With("repo", "MentorRepo")}
}

func (r *mentorRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *mentorRepo) Upsert(ctx context.Context, tx *gorm.DB, mentor *types.Mentor) (*types.Mentor, error) {
	if err := r.conn(tx).WithContext(ctx).Save(mentor).Error; err != nil {
		return nil, err
	}
	return mentor, nil
}

func (r *mentorRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Mentor, error) {
	var mentor types.Mentor
	err := r.conn(tx).WithContext(ctx).First(&mentor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mentor, nil
}

func (r *mentorRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Mentor, error) {
	var mentors []*types.Mentor
	if err := r.conn(tx).WithContext(ctx).Order("created_at ASC").Find(&mentors).Error; err != nil {
		return nil, err
	}
	return mentors, nil
}

func (r *mentorRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return r.conn(tx).WithContext(ctx).Delete(&types.Mentor{}, "id = ?", id).Error
}
