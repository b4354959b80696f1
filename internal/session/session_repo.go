package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=session_repo.go -destination=mock/session_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	FindByShortCode(ctx context.Context, shortCode string) (*Session, error)
	FindOpenBySection(ctx context.Context, sectionID int64) (*Session, error)
	FindOpenExpired(ctx context.Context, now time.Time) ([]Session, error)
	FindLatestBySlot(ctx context.Context, dateLocal, periodID string, sectionID int64) (*Session, error)
	MarkClosed(ctx context.Context, id uuid.UUID, closedAt time.Time) error
	CountOpen(ctx context.Context) (int64, error)

	CountSubmissions(ctx context.Context, sessionID uuid.UUID) (int64, error)

	UpsertLog(ctx context.Context, log *SessionLog) error
	FindLogBySession(ctx context.Context, sessionID uuid.UUID) (*SessionLog, error)

	CreateIdempotencyKey(ctx context.Context, k *IdempotencyKey) error
	FindIdempotencyKey(ctx context.Context, key string) (*IdempotencyKey, error)
	SaveIdempotencyKey(ctx context.Context, k *IdempotencyKey) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("Section.Semester").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindByShortCode(ctx context.Context, shortCode string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("Section.Semester").
		Where("short_code = ?", shortCode).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindOpenBySection(ctx context.Context, sectionID int64) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Where("status = ?", StatusOpen).
		Order("start_at_utc DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindOpenExpired(ctx context.Context, now time.Time) ([]Session, error) {
	var rows []Session
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusOpen).
		Where("end_at_utc <= ?", now).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindLatestBySlot(ctx context.Context, dateLocal, periodID string, sectionID int64) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("Section.Semester").
		Where("date_local = ?", dateLocal).
		Where("period_id = ?", periodID).
		Where("section_id = ?", sectionID).
		Order("start_at_utc DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) MarkClosed(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        StatusClosed,
			"closed_at_utc": closedAt,
		}).Error
}

func (r *repository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("status = ?", StatusOpen).
		Count(&n).Error
	return n, err
}

func (r *repository) CountSubmissions(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("attendance_submissions").
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}

func (r *repository) UpsertLog(ctx context.Context, log *SessionLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"closed_at_utc", "duration_sec", "present_count", "status",
			}),
		}).
		Create(log).Error
}

func (r *repository) FindLogBySession(ctx context.Context, sessionID uuid.UUID) (*SessionLog, error) {
	var l SessionLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) CreateIdempotencyKey(ctx context.Context, k *IdempotencyKey) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *repository) FindIdempotencyKey(ctx context.Context, key string) (*IdempotencyKey, error) {
	var k IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&k).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &k, nil
}

func (r *repository) SaveIdempotencyKey(ctx context.Context, k *IdempotencyKey) error {
	return r.db.WithContext(ctx).Save(k).Error
}
