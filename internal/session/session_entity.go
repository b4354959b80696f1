package session

import (
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/section"

	"github.com/google/uuid"
)

const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Session is one faculty-initiated attendance window for a section.
// OPEN -> CLOSED is the only transition; CLOSED is terminal.
type Session struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	SectionID    int64            `gorm:"column:section_id;not null;index"`
	PeriodID     string           `gorm:"column:period_id;type:varchar(4);not null"`
	DateLocal    string           `gorm:"column:date_local;type:varchar(10);not null"`
	Course       string           `gorm:"column:course;not null"`
	FacultyName  string           `gorm:"column:faculty_name;not null"`
	Token        string           `gorm:"column:token;not null;uniqueIndex:uq_sessions_token"`
	TokenTail    string           `gorm:"column:token_tail;type:varchar(6);not null"`
	ShortCode    string           `gorm:"column:short_code;not null;uniqueIndex:uq_sessions_short_code"`
	Status       string           `gorm:"column:status;type:varchar(10);not null;default:OPEN"`
	StartAtUTC   time.Time        `gorm:"column:start_at_utc;type:timestamptz;not null"`
	EndAtUTC     time.Time        `gorm:"column:end_at_utc;type:timestamptz;not null"`
	ClosedAtUTC  *time.Time       `gorm:"column:closed_at_utc;type:timestamptz"`
	StartIPHash  string           `gorm:"column:start_ip_hash;not null"`
	CreatedAtUTC time.Time        `gorm:"column:created_at_utc;type:timestamptz;autoCreateTime"`
	Section      *section.Section `gorm:"foreignKey:SectionID;references:ID"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !s.EndAtUTC.After(now)
}

// SessionLog is the write-once-per-close summary. It is upserted, never
// deleted; re-closing an already CLOSED session leaves it unchanged.
type SessionLog struct {
	SessionID    uuid.UUID `gorm:"column:session_id;type:uuid;primaryKey"`
	SectionID    int64     `gorm:"column:section_id;not null"`
	PeriodID     string    `gorm:"column:period_id;type:varchar(4);not null"`
	DateLocal    string    `gorm:"column:date_local;type:varchar(10);not null"`
	Course       string    `gorm:"column:course;not null"`
	FacultyName  string    `gorm:"column:faculty_name;not null"`
	StartAtUTC   time.Time `gorm:"column:start_at_utc;type:timestamptz;not null"`
	EndAtUTC     time.Time `gorm:"column:end_at_utc;type:timestamptz;not null"`
	ClosedAtUTC  time.Time `gorm:"column:closed_at_utc;type:timestamptz;not null"`
	DurationSec  int       `gorm:"column:duration_sec;not null"`
	PresentCount int       `gorm:"column:present_count;not null"`
	Status       string    `gorm:"column:status;type:varchar(10);not null"`
	StartIPHash  string    `gorm:"column:start_ip_hash;not null"`
}

func (SessionLog) TableName() string {
	return "session_logs"
}

// IdempotencyKey maps a client-supplied retry key to the session its
// first successful start produced, for the duration of the TTL.
type IdempotencyKey struct {
	Key       string     `gorm:"column:key;primaryKey"`
	SectionID int64      `gorm:"column:section_id;not null"`
	SessionID *uuid.UUID `gorm:"column:session_id;type:uuid"`
	ExpiresAt time.Time  `gorm:"column:expires_at;type:timestamptz;not null"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
