package models

import (
	"time"

	"gorm.io/gorm"
)

// Institution is the tenancy boundary. Every quiz, question and attempt is
// scoped to exactly one institution, either directly or through the
// Subject -> Grade chain.
type Institution struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;uniqueIndex;size:200" validate:"required,min=1,max=200"`

	// Unapproved institutions are visible only to super admins.
	Approved bool `json:"approved" gorm:"default:false;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Grades []Grade `json:"grades,omitempty" gorm:"foreignKey:InstitutionID"`
}

type Grade struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	InstitutionID uint   `json:"institution_id" gorm:"not null;index"`
	Name          string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Institution Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
	Subjects    []Subject   `json:"subjects,omitempty" gorm:"foreignKey:GradeID"`
}

type Subject struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	GradeID uint   `json:"grade_id" gorm:"not null;index"`
	Name    string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Grade Grade `json:"grade,omitempty" gorm:"foreignKey:GradeID"`
}

func (Institution) TableName() string {
	return "institutions"
}

func (Grade) TableName() string {
	return "grades"
}

func (Subject) TableName() string {
	return "subjects"
}
