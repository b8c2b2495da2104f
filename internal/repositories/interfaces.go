package repositories

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/EduCore-2026/quiz-platform/internal/models"
)

// ===== TENANCY DOMAIN =====

type InstitutionRepository interface {
	Create(ctx context.Context, institution *models.Institution) error
	GetByID(ctx context.Context, id uint) (*models.Institution, error)
	List(ctx context.Context, filters InstitutionFilters) ([]*models.Institution, int64, error)
	Update(ctx context.Context, institution *models.Institution) error
	SetApproved(ctx context.Context, id uint, approved bool) error
	Delete(ctx context.Context, id uint) error
}

type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	GetByID(ctx context.Context, id uint) (*models.Grade, error)
	ListByInstitution(ctx context.Context, institutionID uint) ([]*models.Grade, error)
}

type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id uint) (*models.Subject, error)
	// GetByIDWithGrade preloads Grade so the institution chain can be
	// resolved without a second query.
	GetByIDWithGrade(ctx context.Context, id uint) (*models.Subject, error)
	ListByGrade(ctx context.Context, gradeID uint) ([]*models.Subject, error)
}

// ===== QUIZ DOMAIN =====

type QuizRepository interface {
	// Create persists the quiz together with its settings and questions.
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	UpdateSettings(ctx context.Context, settings *models.QuizSettings) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	ListBySubject(ctx context.Context, subjectID uint, filters QuizFilters) ([]*models.Quiz, int64, error)

	HasAttempts(ctx context.Context, id uint) (bool, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error)
}

// ===== ATTEMPT DOMAIN =====

// AttemptCompletion carries everything the single completing update writes.
type AttemptCompletion struct {
	Answers          datatypes.JSON
	Score            int
	SubmittedAt      time.Time
	TimeSpentMinutes int
}

type AttemptRepository interface {
	// Create inserts a new in-progress attempt. When the student already
	// has an uncompleted attempt for the quiz the insert fails on the
	// partial unique index and ErrDuplicateActiveAttempt is returned; the
	// caller must not pre-check with a read.
	Create(ctx context.Context, attempt *models.QuizAttempt) error

	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	// GetByIDWithQuiz preloads Quiz and its Questions for grading.
	GetByIDWithQuiz(ctx context.Context, id uint) (*models.QuizAttempt, error)
	GetActiveAttempt(ctx context.Context, quizID uint, studentID string) (*models.QuizAttempt, error)

	// CompleteAttempt performs the guarded completing update:
	//   UPDATE ... SET answers, score, completed=true, submitted_at,
	//   time_spent_minutes WHERE id = ? AND completed = false
	// When no row matches it returns ErrAttemptAlreadyCompleted and the
	// stored score stays untouched.
	CompleteAttempt(ctx context.Context, id uint, completion AttemptCompletion) error

	ListByQuiz(ctx context.Context, quizID uint, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	ListByStudent(ctx context.Context, studentID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetQuizAttemptStats(ctx context.Context, quizID uint) (*QuizAttemptStats, error)
}

// ===== USER DOMAIN =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// ===== SHARED FILTER STRUCTS =====

type InstitutionFilters struct {
	Approved  *bool  `json:"approved"`
	Search    string `json:"search"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type QuizFilters struct {
	SubjectID     *uint   `json:"subject_id"`
	InstitutionID *uint   `json:"institution_id"`
	CreatedBy     *string `json:"created_by"`
	Search        string  `json:"search"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
	SortBy        string  `json:"sort_by"`    // "created_at", "title", "start_time"
	SortOrder     string  `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Completed *bool      `json:"completed"`
	StudentID *string    `json:"student_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

type UserFilters struct {
	Role          *models.UserRole `json:"role"`
	InstitutionID *uint            `json:"institution_id"`
	Approved      *bool            `json:"approved"`
	Search        string           `json:"search"`
	Limit         int              `json:"limit"`
	Offset        int              `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizAttemptStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	AverageTimeSpent  int     `json:"average_time_spent"`
}
