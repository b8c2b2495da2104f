package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/access"
	"github.com/EduCore-2026/quiz-platform/internal/events"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start creates a new in-progress attempt. The insert is the only
// concurrency control: the storage layer rejects a second active attempt for
// the same (quiz, student) pair, so N racing calls resolve to one winner
// with no read-then-write window.
func (s *attemptService) Start(ctx context.Context, quizID uint, actor models.Principal) (*AttemptResponse, error) {
	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "student_id", actor.ID)

	if !access.CanTakeQuiz(actor) {
		return nil, NewPermissionError(actor.ID, quizID, "quiz", "take", "only students take quizzes")
	}
	if !actor.Approved {
		return nil, ErrUserNotApproved
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	institutionID, err := effectiveInstitutionID(ctx, s.repo, quiz)
	if err != nil {
		return nil, err
	}
	if institutionID != nil && !access.CanAccessInstitution(actor, *institutionID) {
		return nil, NewPermissionError(actor.ID, quizID, "quiz", "take", "quiz belongs to another institution")
	}

	now := time.Now()
	if !quiz.IsOpenAt(now) {
		return nil, ErrQuizNotActive
	}

	// MaxScore is snapshotted at start so later question edits never change
	// what an in-flight attempt is graded against.
	attempt := &models.QuizAttempt{
		QuizID:    quiz.ID,
		StudentID: actor.ID,
		MaxScore:  totalPoints(quiz.Questions),
		Completed: false,
		StartedAt: now,
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		if repositories.IsDuplicateActiveAttemptError(err) {
			return nil, ErrActiveAttemptExists
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.publishAttemptEvent(ctx, events.EventAttemptStarted, attempt, nil)

	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quiz.ID,
		"student_id", actor.ID,
		"max_score", attempt.MaxScore)

	return buildAttemptResponse(attempt, quiz, actor), nil
}

// Submit grades the attempt and flips it to completed. Grading is computed
// outside the store, then applied with a single guarded update so that only
// the first submit ever writes a score.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, req *models.SubmitAttemptRequest, actor models.Principal) (*SubmitResultResponse, error) {
	s.logger.Info("Submitting quiz attempt",
		"attempt_id", attemptID,
		"student_id", actor.ID,
		"answers_count", len(req.Answers))

	if errs := s.validator.Validate(req); errs != nil {
		return nil, errs
	}

	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != actor.ID {
		return nil, NewPermissionError(actor.ID, attemptID, "attempt", "submit", "not owned by student")
	}
	if attempt.Completed {
		return nil, ErrAttemptAlreadySubmitted
	}

	score, answersJSON, err := gradeAnswers(attempt.Quiz.Questions, req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to grade answers: %w", err)
	}

	now := time.Now()
	completion := repositories.AttemptCompletion{
		Answers:          answersJSON,
		Score:            score,
		SubmittedAt:      now,
		TimeSpentMinutes: int(now.Sub(attempt.StartedAt).Minutes()),
	}

	if err := s.repo.Attempt().CompleteAttempt(ctx, attemptID, completion); err != nil {
		if repositories.IsAttemptAlreadyCompletedError(err) {
			return nil, ErrAttemptAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to complete attempt: %w", err)
	}

	s.publishAttemptEvent(ctx, events.EventAttemptCompleted, attempt, &score)

	s.logger.Info("Quiz attempt submitted",
		"attempt_id", attemptID,
		"score", score,
		"max_score", attempt.MaxScore)

	return &SubmitResultResponse{
		AttemptID:        attempt.ID,
		QuizID:           attempt.QuizID,
		Score:            score,
		MaxScore:         attempt.MaxScore,
		Percentage:       scorePercentage(score, attempt.MaxScore),
		TimeSpentMinutes: completion.TimeSpentMinutes,
		SubmittedAt:      &now,
	}, nil
}

// ===== GET OPERATIONS =====

func (s *attemptService) GetByID(ctx context.Context, id uint, actor models.Principal) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	institutionID, err := effectiveInstitutionID(ctx, s.repo, &attempt.Quiz)
	if err != nil {
		return nil, err
	}
	view := access.AttemptView{StudentID: attempt.StudentID, InstitutionID: institutionID}
	if !access.CanViewResults(actor, view) {
		return nil, NewPermissionError(actor.ID, id, "attempt", "read", "not owner or institution staff")
	}

	return buildAttemptResponse(attempt, &attempt.Quiz, actor), nil
}

func (s *attemptService) GetActive(ctx context.Context, quizID uint, actor models.Principal) (*AttemptResponse, error) {
	if !access.CanTakeQuiz(actor) {
		return nil, NewPermissionError(actor.ID, quizID, "quiz", "take", "only students take quizzes")
	}

	attempt, err := s.repo.Attempt().GetActiveAttempt(ctx, quizID, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	return buildAttemptResponse(attempt, quiz, actor), nil
}

// ===== RESULTS =====

// Results lists attempts for a quiz. Students only ever see their own rows;
// staff of the quiz's institution and platform-wide roles see everything
// plus aggregate stats.
func (s *attemptService) Results(ctx context.Context, quizID uint, params models.ListAttemptsParams, actor models.Principal) (*QuizResultsResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	institutionID, err := effectiveInstitutionID(ctx, s.repo, quiz)
	if err != nil {
		return nil, err
	}

	filters := attemptFiltersFromParams(params)
	staffView := isResultsStaff(actor, quiz, institutionID)
	if !staffView {
		if actor.Role != models.RoleStudent {
			return nil, NewPermissionError(actor.ID, quizID, "quiz", "view_results", "not institution staff")
		}
		if institutionID != nil && !access.CanAccessInstitution(actor, *institutionID) {
			return nil, NewPermissionError(actor.ID, quizID, "quiz", "view_results", "quiz belongs to another institution")
		}
		filters.StudentID = &actor.ID
	}

	attempts, total, err := s.repo.Attempt().ListByQuiz(ctx, quizID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	resp := &QuizResultsResponse{Attempts: attempts, Total: total}
	if staffView {
		stats, err := s.repo.Attempt().GetQuizAttemptStats(ctx, quizID)
		if err != nil {
			s.logger.Error("Failed to load attempt stats", "quiz_id", quizID, "error", err)
		} else {
			resp.Stats = buildResultsStats(stats)
		}
	}

	return resp, nil
}

func (s *attemptService) ListByStudent(ctx context.Context, studentID string, params models.ListAttemptsParams, actor models.Principal) ([]*models.QuizAttempt, int64, error) {
	if actor.ID != studentID {
		student, err := s.repo.User().GetByID(ctx, studentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, 0, ErrUserNotFound
			}
			return nil, 0, fmt.Errorf("failed to get student: %w", err)
		}
		if !access.CanManageUser(actor, student.Role, student.InstitutionID) {
			return nil, 0, NewPermissionError(actor.ID, studentID, "attempts", "list", "cannot manage this student")
		}
	}

	attempts, total, err := s.repo.Attempt().ListByStudent(ctx, studentID, attemptFiltersFromParams(params))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

func (s *attemptService) publishAttemptEvent(ctx context.Context, eventType string, attempt *models.QuizAttempt, score *int) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(eventType, events.AttemptEvent{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		StudentID: attempt.StudentID,
		Score:     score,
		MaxScore:  attempt.MaxScore,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt event",
			"event_type", eventType,
			"attempt_id", attempt.ID,
			"error", err)
	}
}
