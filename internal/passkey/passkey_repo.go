package passkey

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=passkey_repo.go -destination=mock/passkey_repo_mock.go -package=mock
type Repository interface {
	FindLatest(ctx context.Context) (*Passkey, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindLatest(ctx context.Context) (*Passkey, error) {
	var p Passkey
	err := r.db.WithContext(ctx).
		Order("version DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
