package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	duplicateActive := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: activeAttemptIndex}
	otherConstraint := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "uq_users_email"}
	notNull := &pgconn.PgError{Code: "23502", ConstraintName: activeAttemptIndex}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", duplicateActive, activeAttemptIndex, true},
		{"wrapped matching constraint", fmt.Errorf("insert: %w", duplicateActive), activeAttemptIndex, true},
		{"different constraint same code", otherConstraint, activeAttemptIndex, false},
		{"any constraint accepted when unnamed", otherConstraint, "", true},
		{"wrong error code", notNull, activeAttemptIndex, false},
		{"not a postgres error", errors.New("connection reset"), activeAttemptIndex, false},
		{"nil error", nil, activeAttemptIndex, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Errorf("isUniqueViolation(%v, %q) = %v, want %v", tc.err, tc.constraint, got, tc.want)
			}
		})
	}
}
