package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuizAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	QuizID    uint   `json:"quiz_id" gorm:"not null;index:idx_attempt_quiz_student"`
	StudentID string `json:"student_id" gorm:"not null;index:idx_attempt_quiz_student;size:255"`

	// Answers is a JSONB map of question id -> submitted answer, written
	// once at submit time. A question left unanswered is stored as "".
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	// Scoring. MaxScore is snapshotted at start and never recomputed;
	// Score is written exactly once, in the same update that flips
	// Completed. The one-active-attempt rule is a partial unique index:
	//   CREATE UNIQUE INDEX idx_one_active_attempt
	//   ON quiz_attempts (quiz_id, student_id) WHERE NOT completed;
	Score     int  `json:"score"`
	MaxScore  int  `json:"max_score" gorm:"not null"`
	Completed bool `json:"completed" gorm:"not null;default:false;index"`

	// Timing
	StartedAt        time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	TimeSpentMinutes *int       `json:"time_spent_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz  `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AnswerMap decodes the JSONB answers column. Returns an empty map for an
// attempt that has not been submitted yet.
func (a *QuizAttempt) AnswerMap() (map[string]string, error) {
	if len(a.Answers) == 0 {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(a.Answers, &m); err != nil {
		return nil, err
	}
	return m, nil
}
