package session

import "time"

type StartSessionRequest struct {
	SectionID   int64  `json:"sectionId" binding:"required,gt=0"`
	Course      string `json:"course" binding:"required,max=120"`
	FacultyName string `json:"facultyName" binding:"required,max=120"`
	Passkey     string `json:"passkey" binding:"required,max=120"`
}

// StartParams is the service-level input; transport concerns (client
// IP, origin, idempotency header) are resolved by the handler.
type StartParams struct {
	SectionID      int64
	Course         string
	FacultyName    string
	Passkey        string
	ClientIP       string
	Origin         string
	IdempotencyKey string
}

type StartResult struct {
	SessionID string
	ShortURL  string
	TokenTail string
	EndsAt    time.Time
	PeriodID  string
}

type CloseSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Passkey   string `json:"passkey" binding:"required"`
}

type CloseResult struct {
	Session *Session
	Log     *SessionLog
}

type SweepResult struct {
	Scanned  int
	Closed   int
	Duration time.Duration
}

type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
	ShortURL  string `json:"shortUrl"`
	TokenTail string `json:"tokenTail"`
	EndsAt    string `json:"endsAt"`
	PeriodID  string `json:"periodId"`
}

type CloseSessionResponse struct {
	SessionID    string `json:"sessionId"`
	Status       string `json:"status"`
	PresentCount int    `json:"presentCount"`
	DurationSec  int    `json:"durationSec"`
	ClosedAt     string `json:"closedAt"`
}

type ActiveSessionResponse struct {
	Active  bool                `json:"active"`
	Session *ActiveSessionBrief `json:"session,omitempty"`
}

type ActiveSessionBrief struct {
	SessionID        string `json:"sessionId"`
	Course           string `json:"course"`
	FacultyName      string `json:"facultyName"`
	PeriodID         string `json:"periodId"`
	TokenTail        string `json:"tokenTail"`
	EndsAt           string `json:"endsAt"`
	SecondsRemaining int    `json:"secondsRemaining"`
}

// PublicSessionResponse is what the shareable link resolves to. It
// never carries the full token; the token travels only inside the URL
// the faculty projected.
type PublicSessionResponse struct {
	SessionID        string `json:"sessionId"`
	Course           string `json:"course"`
	FacultyName      string `json:"facultyName"`
	SectionID        int64  `json:"sectionId"`
	SectionName      string `json:"sectionName,omitempty"`
	SemesterName     string `json:"semesterName,omitempty"`
	PeriodID         string `json:"periodId"`
	Status           string `json:"status"`
	EndsAt           string `json:"endsAt"`
	TokenTail        string `json:"tokenTail"`
	SecondsRemaining int    `json:"secondsRemaining"`
}

type SweepResponse struct {
	Scanned    int   `json:"scanned"`
	Closed     int   `json:"closed"`
	DurationMS int64 `json:"durationMs"`
}
