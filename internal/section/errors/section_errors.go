package sectionerrors

import (
	"net/http"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
)

var (
	ErrSectionNotFound = apperror.New(
		apperror.CodeNotFound,
		"Section not found",
		http.StatusNotFound,
	)

	ErrInvalidSectionID = apperror.New(
		apperror.CodeValidationError,
		"sectionId must be a positive integer",
		http.StatusBadRequest,
	)
)
