package sessionerrors

import (
	"net/http"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
)

var (
	ErrOutsidePeriod = apperror.New(
		apperror.CodeForbidden,
		"Sessions can only be started during scheduled periods",
		http.StatusForbidden,
	)

	ErrSessionAlreadyActive = apperror.New(
		apperror.CodeConflict,
		"A session is already active for this section. Close it before starting a new one.",
		http.StatusConflict,
	)

	// Deliberately the same message a token mismatch produces, so a
	// guessed shortCode learns nothing about whether it ever existed.
	ErrSessionClosed = apperror.New(
		apperror.CodeSessionClosed,
		"Session closed.",
		http.StatusGone,
	)

	ErrSessionNotFound = apperror.New(
		apperror.CodeNotFound,
		"Session not found",
		http.StatusNotFound,
	)

	ErrConflictingStart = apperror.New(
		apperror.CodeConflict,
		"Unable to start session due to a conflicting request. Please retry.",
		http.StatusConflict,
	)

	// Exhausting the token regeneration budget means the entropy source
	// is misbehaving; operators need to look at it, clients do not.
	ErrTokenGeneration = apperror.New(
		apperror.CodeInternalError,
		"Unable to generate unique session token",
		http.StatusInternalServerError,
	)
)
