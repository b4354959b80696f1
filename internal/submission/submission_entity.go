package submission

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceSubmission is one student's accepted check-in. The
// (session_id, roll) pair is unique; the row is immutable once written.
type AttendanceSubmission struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID      uuid.UUID `gorm:"column:session_id;type:uuid;not null;uniqueIndex:uq_submissions_session_roll"`
	SectionID      int64     `gorm:"column:section_id;not null;index:idx_submissions_device_slot"`
	PeriodID       string    `gorm:"column:period_id;type:varchar(4);not null;index:idx_submissions_device_slot"`
	DateLocal      string    `gorm:"column:date_local;type:varchar(10);not null;index:idx_submissions_device_slot"`
	Roll           string    `gorm:"column:roll;type:varchar(20);not null;uniqueIndex:uq_submissions_session_roll"`
	Name           string    `gorm:"column:name;not null"`
	IPHash         string    `gorm:"column:ip_hash;not null;index"`
	DeviceHash     string    `gorm:"column:device_hash;index:idx_submissions_device_slot"`
	UserAgentHash  string    `gorm:"column:user_agent_hash"`
	SubmittedAtUTC time.Time `gorm:"column:submitted_at_utc;type:timestamptz;not null;autoCreateTime"`
}

func (AttendanceSubmission) TableName() string {
	return "attendance_submissions"
}
