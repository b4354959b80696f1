package events

import "time"

const (
	SessionLifecycleTopic = "attendance.session.lifecycle.v1"

	TypeSessionClosed = "session.closed"
)

type SessionClosedEvent struct {
	EventType    string    `json:"event_type"`
	SessionID    string    `json:"session_id"`
	SectionID    int64     `json:"section_id"`
	PeriodID     string    `json:"period_id"`
	DateLocal    string    `json:"date_local"`
	PresentCount int       `json:"present_count"`
	DurationSec  int       `json:"duration_sec"`
	ClosedAtUTC  time.Time `json:"closed_at_utc"`
}
