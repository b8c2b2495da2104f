package access

import (
	"testing"

	"github.com/EduCore-2026/quiz-platform/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func principal(role models.UserRole, instID *uint) models.Principal {
	return models.Principal{ID: "actor-1", Role: role, InstitutionID: instID, Approved: true}
}

func TestCanAccessInstitution(t *testing.T) {
	tests := []struct {
		name string
		p    models.Principal
		inst uint
		want bool
	}{
		{"super admin crosses tenants", principal(models.RoleSuperAdmin, nil), 7, true},
		{"global content creator crosses tenants", principal(models.RoleGlobalContentCreator, nil), 7, true},
		{"admin own institution", principal(models.RoleAdmin, uintPtr(7)), 7, true},
		{"admin other institution", principal(models.RoleAdmin, uintPtr(7)), 8, false},
		{"teacher own institution", principal(models.RoleTeacher, uintPtr(3)), 3, true},
		{"student other institution", principal(models.RoleStudent, uintPtr(3)), 4, false},
		{"student without institution", principal(models.RoleStudent, nil), 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessInstitution(tt.p, tt.inst); got != tt.want {
				t.Errorf("CanAccessInstitution() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanManageUser(t *testing.T) {
	instA := uintPtr(1)
	instB := uintPtr(2)

	tests := []struct {
		name       string
		p          models.Principal
		targetRole models.UserRole
		targetInst *uint
		want       bool
	}{
		{"super admin manages super admin", principal(models.RoleSuperAdmin, nil), models.RoleSuperAdmin, nil, true},
		{"super admin manages student anywhere", principal(models.RoleSuperAdmin, nil), models.RoleStudent, instB, true},

		{"gcc cannot manage super admin", principal(models.RoleGlobalContentCreator, nil), models.RoleSuperAdmin, nil, false},
		{"gcc manages gcc", principal(models.RoleGlobalContentCreator, nil), models.RoleGlobalContentCreator, nil, true},
		{"gcc manages admin cross-tenant", principal(models.RoleGlobalContentCreator, nil), models.RoleAdmin, instB, true},

		{"admin manages teacher same institution", principal(models.RoleAdmin, instA), models.RoleTeacher, instA, true},
		{"admin manages admin same institution", principal(models.RoleAdmin, instA), models.RoleAdmin, instA, true},
		{"admin cannot manage gcc", principal(models.RoleAdmin, instA), models.RoleGlobalContentCreator, instA, false},
		{"admin cannot reach other institution", principal(models.RoleAdmin, instA), models.RoleStudent, instB, false},

		{"teacher manages student same institution", principal(models.RoleTeacher, instA), models.RoleStudent, instA, true},
		{"teacher cannot manage teacher", principal(models.RoleTeacher, instA), models.RoleTeacher, instA, false},
		{"teacher cannot reach other institution", principal(models.RoleTeacher, instA), models.RoleStudent, instB, false},

		{"student manages nobody", principal(models.RoleStudent, instA), models.RoleStudent, instA, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManageUser(tt.p, tt.targetRole, tt.targetInst); got != tt.want {
				t.Errorf("CanManageUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The first matching role branch decides: an admin denied for tenancy must
// not be re-evaluated under the teacher rules.
func TestCanManageUserNoFallthrough(t *testing.T) {
	instA := uintPtr(1)
	instB := uintPtr(2)
	admin := principal(models.RoleAdmin, instA)

	if CanManageUser(admin, models.RoleStudent, instB) {
		t.Fatal("admin of institution A managed a student of institution B")
	}
	if CanManageUser(admin, models.RoleGlobalContentCreator, instA) {
		t.Fatal("admin escalated to manage a global content creator")
	}
}

// No role may manage a strictly more privileged role.
func TestCanManageUserNeverEscalates(t *testing.T) {
	inst := uintPtr(1)
	rank := map[models.UserRole]int{
		models.RoleSuperAdmin:           4,
		models.RoleGlobalContentCreator: 3,
		models.RoleAdmin:                2,
		models.RoleTeacher:              1,
		models.RoleStudent:              0,
	}
	roles := []models.UserRole{
		models.RoleSuperAdmin,
		models.RoleGlobalContentCreator,
		models.RoleAdmin,
		models.RoleTeacher,
		models.RoleStudent,
	}
	for _, actor := range roles {
		for _, target := range roles {
			if rank[target] > rank[actor] && CanManageUser(principal(actor, inst), target, inst) {
				t.Errorf("%s managed more privileged %s", actor, target)
			}
		}
	}
}

func TestCanCreateAndTakeQuiz(t *testing.T) {
	inst := uintPtr(1)
	creators := []models.UserRole{
		models.RoleSuperAdmin,
		models.RoleGlobalContentCreator,
		models.RoleAdmin,
		models.RoleTeacher,
	}
	for _, role := range creators {
		if !CanCreateQuiz(principal(role, inst)) {
			t.Errorf("%s should be able to create quizzes", role)
		}
		if CanTakeQuiz(principal(role, inst)) {
			t.Errorf("%s should not be able to take quizzes", role)
		}
	}
	student := principal(models.RoleStudent, inst)
	if CanCreateQuiz(student) {
		t.Error("student should not create quizzes")
	}
	if !CanTakeQuiz(student) {
		t.Error("student should take quizzes")
	}
}

func TestCanViewResults(t *testing.T) {
	instA := uintPtr(1)
	instB := uintPtr(2)
	view := AttemptView{StudentID: "student-9", InstitutionID: instA}

	tests := []struct {
		name string
		p    models.Principal
		want bool
	}{
		{"owner", models.Principal{ID: "student-9", Role: models.RoleStudent, InstitutionID: instA, Approved: true}, true},
		{"other student same institution", principal(models.RoleStudent, instA), false},
		{"teacher same institution", principal(models.RoleTeacher, instA), true},
		{"teacher other institution", principal(models.RoleTeacher, instB), false},
		{"admin same institution", principal(models.RoleAdmin, instA), true},
		{"super admin", principal(models.RoleSuperAdmin, nil), true},
		{"gcc", principal(models.RoleGlobalContentCreator, nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewResults(tt.p, view); got != tt.want {
				t.Errorf("CanViewResults() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Authorize must be deterministic and side-effect free: calling it twice
// with identical inputs yields identical answers across the whole matrix.
func TestAuthorizeDeterministic(t *testing.T) {
	inst := uintPtr(1)
	actions := []Action{
		ActionAccessInstitution,
		ActionManageUser,
		ActionCreateQuiz,
		ActionTakeQuiz,
		ActionViewResults,
		Action("unknown"),
	}
	roles := []models.UserRole{
		models.RoleSuperAdmin,
		models.RoleGlobalContentCreator,
		models.RoleAdmin,
		models.RoleTeacher,
		models.RoleStudent,
	}
	res := Resource{
		InstitutionID: inst,
		TargetRole:    models.RoleStudent,
		TargetInstID:  inst,
		OwnerID:       "student-9",
	}
	for _, role := range roles {
		p := principal(role, inst)
		for _, action := range actions {
			first := Authorize(p, res, action)
			second := Authorize(p, res, action)
			if first != second {
				t.Errorf("Authorize(%s, %s) not deterministic: %v then %v", role, action, first, second)
			}
		}
	}
}

func TestAuthorizeUnknownActionDenies(t *testing.T) {
	if Authorize(principal(models.RoleSuperAdmin, nil), Resource{}, Action("delete_everything")) {
		t.Fatal("unknown action must deny even for super admin")
	}
}

func TestAuthorizeMissingInstitutionDenies(t *testing.T) {
	if Authorize(principal(models.RoleAdmin, uintPtr(1)), Resource{}, ActionAccessInstitution) {
		t.Fatal("access_institution without a resource institution must deny")
	}
}
