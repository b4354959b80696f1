package ratelimit

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository reads durable request counts. Counting runs against the
// session and submission tables directly; this package owns no rows.
//
//go:generate mockgen -source=ratelimit_repo.go -destination=mock/ratelimit_repo_mock.go -package=mock
type Repository interface {
	CountStartsSince(ctx context.Context, ipHash string, since time.Time) (int64, error)
	CountSubmitsByIPSince(ctx context.Context, ipHash string, since time.Time) (int64, error)
	CountSubmitsByRollSince(ctx context.Context, roll string, since time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountStartsSince(ctx context.Context, ipHash string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("sessions").
		Where("start_ip_hash = ?", ipHash).
		Where("created_at_utc >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *repository) CountSubmitsByIPSince(ctx context.Context, ipHash string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("attendance_submissions").
		Where("ip_hash = ?", ipHash).
		Where("submitted_at_utc >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *repository) CountSubmitsByRollSince(ctx context.Context, roll string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("attendance_submissions").
		Where("roll = ?", roll).
		Where("submitted_at_utc >= ?", since).
		Count(&n).Error
	return n, err
}
