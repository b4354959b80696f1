package submission

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const constraintSessionRoll = "uq_submissions_session_roll"

// uniqueViolation extracts the violated constraint name from a postgres
// unique-violation error. A duplicate roll is not a failure here; the
// caller turns it into an idempotent success.
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
		if strings.Contains(errMsg, constraintSessionRoll) {
			return constraintSessionRoll, true
		}
		return "", true
	}
	return "", false
}
