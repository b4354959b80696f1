package adminerrors

import (
	"net/http"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
)

var ErrInvalidCredentials = apperror.New(
	apperror.CodeUnauthorized,
	"Invalid email or password.",
	http.StatusUnauthorized,
)
