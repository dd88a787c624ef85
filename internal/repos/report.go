package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type SessionReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, report *types.SessionReport) (*types.SessionReport, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionReport, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.SessionReport, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// EvictBeyond removes all but the keep most-recent reports for the user
	// (by creation order) and returns the evicted rows so the caller can
	// cascade blob cleanup.
	EvictBeyond(ctx context.Context, tx *gorm.DB, userID uuid.UUID, keep int) ([]*types.SessionReport, error)
}

type sessionReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionReportRepo(db *gorm.DB, baseLog *logger.Logger) SessionReportRepo {
	return &sessionReportRepo{db: db, log: baseLog.With("repo", "SessionReportRepo")}
}

func (r *sessionReportRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *sessionReportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.SessionReport) (*types.SessionReport, error) {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if err := r.conn(tx).WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func (r *sessionReportRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SessionReport, error) {
	var report types.SessionReport
	err := r.conn(tx).WithContext(ctx).First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *sessionReportRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.SessionReport, error) {
	var reports []*types.SessionReport
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *sessionReportRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Delete(&types.SessionReport{}, "id = ?", id).Error
}

func (r *sessionReportRepo) EvictBeyond(ctx context.Context, tx *gorm.DB, userID uuid.UUID, keep int) ([]*types.SessionReport, error) {
	if keep < 0 {
		keep = 0
	}
	var reports []*types.SessionReport
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	if len(reports) <= keep {
		return nil, nil
	}
	evicted := reports[keep:]
	ids := make([]uuid.UUID, 0, len(evicted))
	for _, rep := range evicted {
		ids = append(ids, rep.ID)
	}
	if err := r.conn(tx).WithContext(ctx).Delete(&types.SessionReport{}, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return evicted, nil
}
