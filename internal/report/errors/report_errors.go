package reporterrors

import (
	"net/http"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
)

var (
	ErrReportNotFound = apperror.New(
		apperror.CodeNotFound,
		"Session not found.",
		http.StatusNotFound,
	)

	ErrInvalidSelector = apperror.New(
		apperror.CodeValidationError,
		"Provide either sessionId or a (date, periodId, sectionId) filter.",
		http.StatusUnprocessableEntity,
	)
)
