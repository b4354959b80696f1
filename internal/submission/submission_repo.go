package submission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=submission_repo.go -destination=mock/submission_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, s *AttendanceSubmission) error
	FindBySessionAndRoll(ctx context.Context, sessionID uuid.UUID, roll string) (*AttendanceSubmission, error)
	FindDeviceDuplicate(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]AttendanceSubmission, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *AttendanceSubmission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) FindBySessionAndRoll(ctx context.Context, sessionID uuid.UUID, roll string) (*AttendanceSubmission, error) {
	var s AttendanceSubmission
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Where("roll = ?", roll).
		First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindDeviceDuplicate(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error) {
	var s AttendanceSubmission
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Where("date_local = ?", dateLocal).
		Where("period_id = ?", periodID).
		Where("device_hash = ?", deviceHash).
		First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]AttendanceSubmission, error) {
	var rows []AttendanceSubmission
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("submitted_at_utc ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&AttendanceSubmission{}).
		Where("submitted_at_utc >= ?", since).
		Count(&n).Error
	return n, err
}
