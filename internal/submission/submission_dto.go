package submission

import "time"

type SubmitRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
	Token     string `json:"token" binding:"required,min=8"`
	Roll      string `json:"roll" binding:"required,min=2,max=32"`
	Name      string `json:"name" binding:"required,min=2,max=120"`
}

// SubmitParams adds what the handler extracts from the request itself:
// the client IP and the headers feeding the device fingerprint.
type SubmitParams struct {
	SessionID      string
	Token          string
	Roll           string
	Name           string
	ClientIP       string
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
}

// SubmitResult reports either a fresh submission or an idempotent
// replay. AlreadySubmitted true means the roll was recorded earlier in
// this session; that is a success, not a conflict.
type SubmitResult struct {
	SubmissionID     string
	Roll             string
	Name             string
	SubmittedAt      time.Time
	AlreadySubmitted bool
}

type SubmitResponse struct {
	Status           string `json:"status"`
	SubmissionID     string `json:"submissionId,omitempty"`
	AlreadySubmitted bool   `json:"alreadySubmitted"`
}
