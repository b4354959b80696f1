package submissionerrors

import (
	"net/http"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
)

// The first three deliberately share the "Session closed." message: a
// student poking at the endpoint cannot tell a dead session id from a
// stale token from a genuinely closed session.
var (
	ErrSessionMissing = apperror.New(
		apperror.CodeNotFound,
		"Session closed.",
		http.StatusNotFound,
	)

	ErrTokenMismatch = apperror.New(
		apperror.CodeInvalidToken,
		"Session closed.",
		http.StatusBadRequest,
	)

	ErrSessionGone = apperror.New(
		apperror.CodeSessionClosed,
		"Session closed.",
		http.StatusGone,
	)

	ErrNotOpenYet = apperror.New(
		apperror.CodeNotOpen,
		"Session is not open yet.",
		http.StatusBadRequest,
	)

	ErrDeviceAlreadyUsed = apperror.New(
		apperror.CodeConflict,
		"This device has already submitted attendance for this section in this period today.",
		http.StatusConflict,
	)

	ErrInvalidRoll = apperror.New(
		apperror.CodeValidationError,
		"Roll format is invalid.",
		http.StatusUnprocessableEntity,
	)
)
