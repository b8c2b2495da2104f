package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleSuperAdmin           UserRole = "super_admin"
	RoleGlobalContentCreator UserRole = "global_content_creator"
	RoleAdmin                UserRole = "admin"
	RoleTeacher              UserRole = "teacher"
	RoleStudent              UserRole = "student"
)

var validRoles = map[UserRole]struct{}{
	RoleSuperAdmin:           {},
	RoleGlobalContentCreator: {},
	RoleAdmin:                {},
	RoleTeacher:              {},
	RoleStudent:              {},
}

// IsValid reports whether r is one of the five platform roles.
func (r UserRole) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;index;size:32"`

	// Tenancy. Nil for platform-wide roles (super_admin, global_content_creator).
	InstitutionID *uint `json:"institution_id" gorm:"index"`

	// Accounts start unapproved and are activated by an admin of the same
	// institution or a super admin.
	Approved bool `json:"approved" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Institution *Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
}

func (User) TableName() string {
	return "users"
}

// Principal is the verified actor attached to every request by the auth
// middleware. It is immutable for the lifetime of the request.
type Principal struct {
	ID            string   `json:"id"`
	Role          UserRole `json:"role"`
	InstitutionID *uint    `json:"institution_id"`
	Approved      bool     `json:"approved"`
}

// PrincipalFromUser builds the request principal from a stored user record.
func PrincipalFromUser(u *User) Principal {
	return Principal{
		ID:            u.ID,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
		Approved:      u.Approved,
	}
}

// BelongsTo reports whether the principal is scoped to the given institution.
// Platform-wide roles carry no institution and return false here; their
// cross-tenant access is decided by the access package.
func (p Principal) BelongsTo(institutionID uint) bool {
	return p.InstitutionID != nil && *p.InstitutionID == institutionID
}
