package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP status codes; everything else is treated as a storage failure.
var (
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrGradeNotFound       = errors.New("grade not found")
	ErrSubjectNotFound     = errors.New("subject not found")
	ErrUserNotFound        = errors.New("user not found")

	// ErrActiveAttemptExists: the student already holds an in-progress
	// attempt on this quiz.
	ErrActiveAttemptExists = errors.New("student already has an active attempt for this quiz")

	// ErrAttemptAlreadySubmitted: the attempt was completed before this
	// submit won the guarded update.
	ErrAttemptAlreadySubmitted = errors.New("attempt has already been submitted")

	// ErrQuizNotActive: the quiz window does not contain the current time.
	ErrQuizNotActive = errors.New("quiz is not open for attempts")

	// ErrQuizHasAttempts: the quiz question set is frozen once any attempt
	// exists.
	ErrQuizHasAttempts = errors.New("quiz already has attempts")

	ErrUserNotApproved    = errors.New("user account is not approved")
	ErrInstitutionPending = errors.New("institution is not approved")
	ErrEmailTaken         = errors.New("email is already registered")
)

// PermissionError carries enough context to log who was denied what.
type PermissionError struct {
	ActorID    string
	ResourceID interface{}
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %v: %s",
		e.ActorID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(actorID string, resourceID interface{}, resource, action, reason string) *PermissionError {
	return &PermissionError{
		ActorID:    actorID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports errors a handler should answer with 403.
// Unapproved accounts and pending institutions are authorization denials,
// not state problems.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrUserNotApproved) ||
		errors.Is(err, ErrInstitutionPending)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrInstitutionNotFound) ||
		errors.Is(err, ErrGradeNotFound) ||
		errors.Is(err, ErrSubjectNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflictError reports errors a handler should answer with 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrActiveAttemptExists) ||
		errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrEmailTaken)
}

// IsInvalidStateError reports errors a handler should answer with 422.
func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrQuizNotActive) ||
		errors.Is(err, ErrQuizHasAttempts)
}
