package models

import (
	"time"

	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// Tenancy: InstitutionID wins when set; otherwise the quiz inherits the
	// institution of its subject through the Grade chain.
	InstitutionID *uint `json:"institution_id" gorm:"index"`
	SubjectID     uint  `json:"subject_id" gorm:"not null;index"`

	// Availability window. Start must precede End (validator rule).
	StartTime    time.Time `json:"start_time" gorm:"not null"`
	EndTime      time.Time `json:"end_time" gorm:"not null"`
	DurationMins int       `json:"duration_mins" gorm:"not null" validate:"required,min=1,max=600"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Settings  QuizSettings  `json:"settings" gorm:"foreignKey:QuizID"`
	Questions []Question    `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	Attempts  []QuizAttempt `json:"attempts,omitempty" gorm:"foreignKey:QuizID"`
	Subject   Subject       `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
	AttemptCount   int `json:"attempt_count" gorm:"-"`
}

type QuizSettings struct {
	QuizID    uint      `json:"quiz_id" gorm:"primaryKey;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	AllowRetake        bool `json:"allow_retake" gorm:"not null;default:false;comment:Allow another attempt after completion"`
	ShowResults        bool `json:"show_results" gorm:"not null;default:true;comment:Expose results to students after submit"`
	RandomizeQuestions bool `json:"randomize_questions" gorm:"not null;default:false;comment:Randomize question order"`
	TimeLimit          bool `json:"time_limit" gorm:"not null;default:true;comment:Enforce duration while in progress"`
	PassingScore       int  `json:"passing_score" gorm:"not null;default:0;check:passing_score >= 0 AND passing_score <= 100"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (QuizSettings) TableName() string {
	return "quiz_settings"
}

// IsOpenAt reports whether the quiz accepts new attempts at t.
// The window is inclusive on both ends.
func (q *Quiz) IsOpenAt(t time.Time) bool {
	return !t.Before(q.StartTime) && !t.After(q.EndTime)
}
