package services

import (
	"context"
	"errors"
	"testing"

	"github.com/EduCore-2026/quiz-platform/internal/models"
)

func TestRegisterStartsUnapproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.services.User().Register(ctx, &models.User{
		ID:       "new-user",
		FullName: "New User",
		Email:    "new@example.com",
		Role:     models.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Approved {
		t.Error("fresh accounts must start unapproved")
	}

	_, err = env.services.User().Register(ctx, &models.User{
		ID:       "other-user",
		FullName: "Other User",
		Email:    "new@example.com",
		Role:     models.RoleStudent,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}
}

func TestTeacherApprovesOnlyStudents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instID := env.institution.ID
	student := &models.User{ID: "s1", FullName: "Student", Email: "s1@example.com", Role: models.RoleStudent, InstitutionID: &instID}
	colleague := &models.User{ID: "t2", FullName: "Colleague", Email: "t2@example.com", Role: models.RoleTeacher, InstitutionID: &instID}
	for _, u := range []*models.User{student, colleague} {
		if _, err := env.services.User().Register(ctx, u); err != nil {
			t.Fatalf("register %s: %v", u.ID, err)
		}
	}

	approved, err := env.services.User().Approve(ctx, student.ID, env.teacher)
	if err != nil {
		t.Fatalf("approve student: %v", err)
	}
	if !approved.Approved {
		t.Error("student should be approved")
	}

	if _, err := env.services.User().Approve(ctx, colleague.ID, env.teacher); !IsPermissionError(err) {
		t.Errorf("teacher approving teacher error = %v, want permission error", err)
	}
}

func TestUpdateCannotEscalateBeyondManageableRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instID := env.institution.ID
	admin := models.Principal{ID: "admin-1", Role: models.RoleAdmin, InstitutionID: &instID, Approved: true}

	student := &models.User{ID: "s1", FullName: "Student", Email: "s1@example.com", Role: models.RoleStudent, InstitutionID: &instID}
	if _, err := env.services.User().Register(ctx, student); err != nil {
		t.Fatalf("register: %v", err)
	}

	// An admin can promote within their institution up to admin...
	teacherRole := models.RoleTeacher
	if _, err := env.services.User().Update(ctx, student.ID, &models.UserUpdateRequest{Role: &teacherRole}, admin); err != nil {
		t.Fatalf("promote to teacher: %v", err)
	}

	// ...but never to a platform-wide role.
	superRole := models.RoleSuperAdmin
	if _, err := env.services.User().Update(ctx, student.ID, &models.UserUpdateRequest{Role: &superRole}, admin); !IsPermissionError(err) {
		t.Errorf("escalation error = %v, want permission error", err)
	}
}

func TestAdminConfinedToOwnInstitution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := models.Institution{Name: "Shelbyville High", Approved: true}
	if err := env.repo.Institution().Create(ctx, &other); err != nil {
		t.Fatalf("seed institution: %v", err)
	}

	outsider := &models.User{ID: "o1", FullName: "Outsider", Email: "o1@example.com", Role: models.RoleStudent, InstitutionID: &other.ID}
	if _, err := env.services.User().Register(ctx, outsider); err != nil {
		t.Fatalf("register: %v", err)
	}

	instID := env.institution.ID
	admin := models.Principal{ID: "admin-1", Role: models.RoleAdmin, InstitutionID: &instID, Approved: true}
	if _, err := env.services.User().Approve(ctx, outsider.ID, admin); !IsPermissionError(err) {
		t.Errorf("cross-tenant approve error = %v, want permission error", err)
	}
}

func TestListUsersScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instID := env.institution.ID
	for _, u := range []*models.User{
		{ID: "s1", FullName: "Student One", Email: "s1@example.com", Role: models.RoleStudent, InstitutionID: &instID},
		{ID: "s2", FullName: "Student Two", Email: "s2@example.com", Role: models.RoleStudent},
	} {
		if _, err := env.services.User().Register(ctx, u); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	users, _, err := env.services.User().List(ctx, models.ListUsersParams{}, env.teacher)
	if err != nil {
		t.Fatalf("teacher list: %v", err)
	}
	for _, u := range users {
		if u.InstitutionID == nil || *u.InstitutionID != instID {
			t.Errorf("teacher list leaked user %s outside their institution", u.ID)
		}
	}

	if _, _, err := env.services.User().List(ctx, models.ListUsersParams{}, env.student); !IsPermissionError(err) {
		t.Errorf("student list error = %v, want permission error", err)
	}

	superAdmin := models.Principal{ID: "root", Role: models.RoleSuperAdmin, Approved: true}
	all, total, err := env.services.User().List(ctx, models.ListUsersParams{}, superAdmin)
	if err != nil {
		t.Fatalf("super admin list: %v", err)
	}
	if total != int64(len(all)) || total != 2 {
		t.Errorf("super admin sees %d users, want 2", total)
	}
}
