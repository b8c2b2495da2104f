package models

import "time"

type QuizCreateRequest struct {
	Title         string                  `json:"title" validate:"required,min=1,max=200"`
	Description   *string                 `json:"description" validate:"omitempty,max=1000"`
	InstitutionID *uint                   `json:"institution_id"`
	SubjectID     uint                    `json:"subject_id" validate:"required"`
	StartTime     time.Time               `json:"start_time" validate:"required"`
	EndTime       time.Time               `json:"end_time" validate:"required"`
	DurationMins  int                     `json:"duration_mins" validate:"required,min=1,max=600"`
	Settings      *QuizSettingsRequest    `json:"settings"`
	Questions     []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

type QuizUpdateRequest struct {
	Title        *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string              `json:"description" validate:"omitempty,max=1000"`
	StartTime    *time.Time           `json:"start_time"`
	EndTime      *time.Time           `json:"end_time"`
	DurationMins *int                 `json:"duration_mins" validate:"omitempty,min=1,max=600"`
	Settings     *QuizSettingsRequest `json:"settings"`
}

type QuizSettingsRequest struct {
	AllowRetake        *bool `json:"allow_retake"`
	ShowResults        *bool `json:"show_results"`
	RandomizeQuestions *bool `json:"randomize_questions"`
	TimeLimit          *bool `json:"time_limit"`
	PassingScore       *int  `json:"passing_score" validate:"omitempty,min=0,max=100"`
}

type QuestionCreateRequest struct {
	Text       string          `json:"text" validate:"required"`
	Options    []string        `json:"options" validate:"required,min=2,max=6,dive,required"`
	Answer     string          `json:"answer" validate:"required"`
	Difficulty DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Points     int             `json:"points" validate:"min=1,max=100"`
}

type QuestionUpdateRequest struct {
	Text       *string          `json:"text" validate:"omitempty,min=1"`
	Options    []string         `json:"options" validate:"omitempty,min=2,max=6,dive,required"`
	Answer     *string          `json:"answer" validate:"omitempty,min=1"`
	Difficulty *DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Points     *int             `json:"points" validate:"omitempty,min=1,max=100"`
}

type InstitutionCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type GradeCreateRequest struct {
	InstitutionID uint   `json:"institution_id" validate:"required"`
	Name          string `json:"name" validate:"required,min=1,max=100"`
}

type SubjectCreateRequest struct {
	GradeID uint   `json:"grade_id" validate:"required"`
	Name    string `json:"name" validate:"required,min=1,max=100"`
}

type UserUpdateRequest struct {
	FullName      *string   `json:"full_name" validate:"omitempty,min=1,max=100"`
	Role          *UserRole `json:"role" validate:"omitempty,oneof=super_admin global_content_creator admin teacher student"`
	InstitutionID *uint     `json:"institution_id"`
	Approved      *bool     `json:"approved"`
}

type SubmitAttemptRequest struct {
	// Keys are question ids rendered as decimal strings; unknown ids are
	// ignored by the grader.
	Answers map[string]string `json:"answers" validate:"required"`
}

// ===== PAGINATION & FILTERING =====

type ListQuizzesParams struct {
	Page          int     `json:"page" validate:"min=0"`
	Size          int     `json:"size" validate:"min=1,max=100"`
	SubjectID     *uint   `json:"subject_id"`
	InstitutionID *uint   `json:"institution_id"`
	CreatedBy     *string `json:"created_by"`
	Search        string  `json:"search"`
	SortBy        string  `json:"sort_by"`
	SortDir       string  `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type ListAttemptsParams struct {
	Page      int     `json:"page" validate:"min=0"`
	Size      int     `json:"size" validate:"min=1,max=100"`
	QuizID    *uint   `json:"quiz_id"`
	StudentID *string `json:"student_id"`
	Completed *bool   `json:"completed"`
	SortBy    string  `json:"sort_by"`
	SortDir   string  `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type ListUsersParams struct {
	Page          int      `json:"page" validate:"min=0"`
	Size          int      `json:"size" validate:"min=1,max=100"`
	Role          UserRole `json:"role"`
	InstitutionID *uint    `json:"institution_id"`
	Approved      *bool    `json:"approved"`
	Search        string   `json:"search"`
}

type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
	First         bool        `json:"first"`
	Last          bool        `json:"last"`
}

// ===== STATISTICS DTOs =====

type QuizResultsStats struct {
	TotalAttempts  int `json:"total_attempts"`
	AverageScore   int `json:"average_score"`
	CompletionRate int `json:"completion_rate"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Code      string      `json:"code"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
