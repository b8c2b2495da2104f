package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Question struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index"`
	Text   string `json:"text" gorm:"type:text;not null" validate:"required"`

	// Options stored as JSONB []string, between 2 and 6 entries.
	// Answer is the correct option verbatim; grading is exact,
	// case-sensitive string equality.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	Answer  string         `json:"answer,omitempty" gorm:"not null;size:500"`

	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:medium;index" validate:"omitempty,oneof=easy medium hard"`
	Points     int             `json:"points" gorm:"not null;default:1" validate:"min=1,max=100"`
	Order      int             `json:"order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz Quiz `json:"-" gorm:"foreignKey:QuizID"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the JSONB options column.
func (q *Question) OptionList() ([]string, error) {
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Sanitized returns a copy safe to show a student taking the quiz:
// the correct answer is stripped.
func (q Question) Sanitized() Question {
	q.Answer = ""
	return q
}
