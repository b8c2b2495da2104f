// Package access holds the platform's authorization decisions as pure
// functions over a request principal and resource attributes. Nothing in
// this package performs I/O or returns errors; a false answer is translated
// into a permission error by the calling service.
package access

import "github.com/EduCore-2026/quiz-platform/internal/models"

// Action names accepted by Authorize.
type Action string

const (
	ActionAccessInstitution Action = "access_institution"
	ActionManageUser        Action = "manage_user"
	ActionCreateQuiz        Action = "create_quiz"
	ActionTakeQuiz          Action = "take_quiz"
	ActionViewResults       Action = "view_results"
)

// Resource carries the attributes a decision may need. Only the fields
// relevant to the requested action are consulted.
type Resource struct {
	InstitutionID *uint
	TargetRole    models.UserRole
	TargetInstID  *uint
	OwnerID       string
}

// AttemptView is the projection of an attempt used by result-visibility
// checks: who owns it and which institution its quiz belongs to.
type AttemptView struct {
	StudentID     string
	InstitutionID *uint
}

// CanAccessInstitution reports whether p may operate inside the given
// institution. Platform-wide roles cross tenant boundaries freely; everyone
// else is confined to their own institution.
func CanAccessInstitution(p models.Principal, institutionID uint) bool {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
		return true
	}
	return p.BelongsTo(institutionID)
}

// CanManageUser reports whether p may create, update or approve a user with
// the given role and institution. Branches are evaluated strictly top-down
// on p.Role; the first match decides and lower branches are never consulted.
func CanManageUser(p models.Principal, targetRole models.UserRole, targetInstitutionID *uint) bool {
	switch p.Role {
	case models.RoleSuperAdmin:
		return true

	case models.RoleGlobalContentCreator:
		switch targetRole {
		case models.RoleGlobalContentCreator, models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
			return true
		}
		return false

	case models.RoleAdmin:
		if !sameInstitution(p, targetInstitutionID) {
			return false
		}
		switch targetRole {
		case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
			return true
		}
		return false

	case models.RoleTeacher:
		return sameInstitution(p, targetInstitutionID) && targetRole == models.RoleStudent
	}

	return false
}

// CanCreateQuiz reports whether p's role may author quizzes. Tenancy of the
// quiz's subject is checked separately via CanAccessInstitution.
func CanCreateQuiz(p models.Principal) bool {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator, models.RoleAdmin, models.RoleTeacher:
		return true
	}
	return false
}

// CanTakeQuiz reports whether p may start or submit attempts.
// Only students take quizzes.
func CanTakeQuiz(p models.Principal) bool {
	return p.Role == models.RoleStudent
}

// CanViewResults reports whether p may read the given attempt's results:
// the owning student, institution staff of the quiz's institution, or a
// platform-wide role.
func CanViewResults(p models.Principal, attempt AttemptView) bool {
	if p.ID == attempt.StudentID {
		return true
	}
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
		return true
	case models.RoleAdmin, models.RoleTeacher:
		return attempt.InstitutionID != nil && p.BelongsTo(*attempt.InstitutionID)
	}
	return false
}

// Authorize is the single dispatch point over the decision functions above.
// Unknown actions deny.
func Authorize(p models.Principal, res Resource, action Action) bool {
	switch action {
	case ActionAccessInstitution:
		if res.InstitutionID == nil {
			return false
		}
		return CanAccessInstitution(p, *res.InstitutionID)
	case ActionManageUser:
		return CanManageUser(p, res.TargetRole, res.TargetInstID)
	case ActionCreateQuiz:
		return CanCreateQuiz(p)
	case ActionTakeQuiz:
		return CanTakeQuiz(p)
	case ActionViewResults:
		return CanViewResults(p, AttemptView{StudentID: res.OwnerID, InstitutionID: res.InstitutionID})
	}
	return false
}

func sameInstitution(p models.Principal, target *uint) bool {
	return p.InstitutionID != nil && target != nil && *p.InstitutionID == *target
}
