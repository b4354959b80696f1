package admin

import (
	"time"

	"github.com/google/uuid"
)

type AdminUser struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"column:email;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAtUTC time.Time `gorm:"column:created_at_utc;type:timestamptz;autoCreateTime"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
