package report

import (
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/submission"
)

// ReportRequest selects a session either directly by id or by its
// (date, period, section) slot. Exactly one of the two must be set.
type ReportRequest struct {
	SessionID string        `json:"sessionId"`
	Filter    *ReportFilter `json:"filter"`
}

type ReportFilter struct {
	Date      string `json:"date" binding:"required"`
	PeriodID  string `json:"periodId" binding:"required,min=2,max=4"`
	SectionID int64  `json:"sectionId" binding:"required,gt=0"`
}

type Report struct {
	Session     *session.Session
	Submissions []submission.AttendanceSubmission
}

type SessionReportResponse struct {
	Session     ReportSession      `json:"session"`
	Metrics     ReportMetrics      `json:"metrics"`
	Submissions []ReportSubmission `json:"submissions"`
}

type ReportSession struct {
	ID          string        `json:"id"`
	DateLocal   string        `json:"dateLocal"`
	Course      string        `json:"course"`
	FacultyName string        `json:"facultyName"`
	PeriodID    string        `json:"periodId"`
	PeriodLabel string        `json:"periodLabel"`
	Section     ReportSection `json:"section"`
	StartAtUTC  time.Time     `json:"startAtUTC"`
	EndAtUTC    time.Time     `json:"endAtUTC"`
	ClosedAtUTC *time.Time    `json:"closedAtUTC"`
	Status      string        `json:"status"`
}

type ReportSection struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	SemesterNumber int    `json:"semesterNumber"`
}

type ReportMetrics struct {
	TotalSubmissions int `json:"totalSubmissions"`
}

type ReportSubmission struct {
	ID             string    `json:"id"`
	Roll           string    `json:"roll"`
	Name           string    `json:"name"`
	SubmittedAtUTC time.Time `json:"submittedAtUTC"`
}
