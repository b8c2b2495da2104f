package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors shared by every Repository implementation. Services match
// on these and translate them into their own error taxonomy.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateActiveAttempt is returned by AttemptRepository.Create when
	// the student already holds an uncompleted attempt for the quiz. The
	// postgres implementation maps the partial unique index violation to
	// this error; the memory implementation enforces it under its lock.
	ErrDuplicateActiveAttempt = errors.New("active attempt already exists")

	// ErrAttemptAlreadyCompleted is returned by CompleteAttempt when the
	// guarded update matched no rows because the attempt was completed
	// concurrently. The stored score is untouched in that case.
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")
)

// IsNotFoundError reports whether err means the record does not exist,
// regardless of which implementation produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateActiveAttemptError reports whether err is the one-active-attempt
// violation.
func IsDuplicateActiveAttemptError(err error) bool {
	return errors.Is(err, ErrDuplicateActiveAttempt)
}

// IsAttemptAlreadyCompletedError reports whether err means the attempt was
// already completed when CompleteAttempt ran.
func IsAttemptAlreadyCompletedError(err error) bool {
	return errors.Is(err, ErrAttemptAlreadyCompleted)
}
