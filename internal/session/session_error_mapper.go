package session

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	constraintToken          = "uq_sessions_token"
	constraintShortCode      = "uq_sessions_short_code"
	constraintOneOpen        = "uq_sessions_one_open_per_section"
	constraintIdempotencyKey = "idempotency_keys_pkey"
)

var knownConstraints = []string{
	constraintToken,
	constraintShortCode,
	constraintOneOpen,
	constraintIdempotencyKey,
}

// uniqueViolation extracts the violated constraint name from a postgres
// unique-violation error. These violations are expected control flow:
// token/shortCode collisions are retried, the open-session constraint
// becomes a conflict, the idempotency key triggers a winner read-back.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return pgErr.ConstraintName, true
		}
		return "", false
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") {
		for _, name := range knownConstraints {
			if strings.Contains(errMsg, name) {
				return name, true
			}
		}
		return "", true
	}
	return "", false
}
