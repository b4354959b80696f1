package admin

import "time"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=200"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	ExpiresAt string `json:"expiresAt"`
}

type HealthSnapshot struct {
	OpenSessions        int64     `json:"openSessions"`
	TotalSections       int64     `json:"totalSections"`
	SubmissionsLastHour int64     `json:"submissionsLastHour"`
	Timestamp           time.Time `json:"timestamp"`
}
