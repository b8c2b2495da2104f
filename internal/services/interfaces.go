package services

import (
	"context"
	"time"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

// ===== RESPONSE DTOs =====

type QuizResponse struct {
	*models.Quiz
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanTake   bool `json:"can_take"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

// AttemptResponse is the student view of an attempt. Questions are always
// sanitized: correct answers never leave the service layer for students.
type AttemptResponse struct {
	*models.QuizAttempt
	Questions []models.Question `json:"questions,omitempty"`
	CanSubmit bool              `json:"can_submit"`
}

type SubmitResultResponse struct {
	AttemptID        uint       `json:"attempt_id"`
	QuizID           uint       `json:"quiz_id"`
	Score            int        `json:"score"`
	MaxScore         int        `json:"max_score"`
	Percentage       int        `json:"percentage"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}

type QuizResultsResponse struct {
	Attempts []*models.QuizAttempt    `json:"attempts"`
	Total    int64                    `json:"total"`
	Stats    *models.QuizResultsStats `json:"stats,omitempty"`
}

type InstitutionResponse struct {
	*models.Institution
	GradeCount int `json:"grade_count,omitempty"`
}

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, req *models.QuizCreateRequest, actor models.Principal) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, actor models.Principal) (*QuizResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, actor models.Principal) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *models.QuizUpdateRequest, actor models.Principal) (*QuizResponse, error)
	UpdateSettings(ctx context.Context, id uint, req *models.QuizSettingsRequest, actor models.Principal) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, actor models.Principal) error
	List(ctx context.Context, params models.ListQuizzesParams, actor models.Principal) (*QuizListResponse, error)
}

type QuestionService interface {
	Add(ctx context.Context, quizID uint, req *models.QuestionCreateRequest, actor models.Principal) (*models.Question, error)
	Update(ctx context.Context, quizID, questionID uint, req *models.QuestionUpdateRequest, actor models.Principal) (*models.Question, error)
	Delete(ctx context.Context, quizID, questionID uint, actor models.Principal) error
	ListByQuiz(ctx context.Context, quizID uint, actor models.Principal) ([]*models.Question, error)
}

type AttemptService interface {
	// Start creates the attempt; exactly one of N concurrent calls for the
	// same (quiz, student) succeeds.
	Start(ctx context.Context, quizID uint, actor models.Principal) (*AttemptResponse, error)

	// Submit grades and completes the attempt; at most one submit per
	// attempt ever scores.
	Submit(ctx context.Context, attemptID uint, req *models.SubmitAttemptRequest, actor models.Principal) (*SubmitResultResponse, error)

	GetByID(ctx context.Context, id uint, actor models.Principal) (*AttemptResponse, error)
	GetActive(ctx context.Context, quizID uint, actor models.Principal) (*AttemptResponse, error)
	Results(ctx context.Context, quizID uint, params models.ListAttemptsParams, actor models.Principal) (*QuizResultsResponse, error)
	ListByStudent(ctx context.Context, studentID string, params models.ListAttemptsParams, actor models.Principal) ([]*models.QuizAttempt, int64, error)
}

type OrganizationService interface {
	CreateInstitution(ctx context.Context, req *models.InstitutionCreateRequest, actor models.Principal) (*models.Institution, error)
	GetInstitution(ctx context.Context, id uint, actor models.Principal) (*models.Institution, error)
	ListInstitutions(ctx context.Context, filters repositories.InstitutionFilters, actor models.Principal) ([]*models.Institution, int64, error)
	ApproveInstitution(ctx context.Context, id uint, actor models.Principal) error
	DeleteInstitution(ctx context.Context, id uint, actor models.Principal) error

	CreateGrade(ctx context.Context, req *models.GradeCreateRequest, actor models.Principal) (*models.Grade, error)
	ListGrades(ctx context.Context, institutionID uint, actor models.Principal) ([]*models.Grade, error)

	CreateSubject(ctx context.Context, req *models.SubjectCreateRequest, actor models.Principal) (*models.Subject, error)
	ListSubjects(ctx context.Context, gradeID uint, actor models.Principal) ([]*models.Subject, error)
}

type UserService interface {
	Register(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string, actor models.Principal) (*models.User, error)
	Update(ctx context.Context, id string, req *models.UserUpdateRequest, actor models.Principal) (*models.User, error)
	Approve(ctx context.Context, id string, actor models.Principal) (*models.User, error)
	List(ctx context.Context, params models.ListUsersParams, actor models.Principal) ([]*models.User, int64, error)
}

type ReportService interface {
	// ExportQuizResults renders the quiz attempt sheet as an xlsx workbook.
	ExportQuizResults(ctx context.Context, quizID uint, actor models.Principal) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Quiz() QuizService
	Question() QuestionService
	Attempt() AttemptService
	Organization() OrganizationService
	User() UserService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
