package section

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=section_repo.go -destination=mock/section_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Section, error)
	FindAll(ctx context.Context) ([]Section, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Section, error) {
	var s Section
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Section, error) {
	var rows []Section
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Order("semester_id ASC, name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Section{}).Count(&n).Error
	return n, err
}
