package services

import (
	"context"
	"errors"
	"testing"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

func TestInstitutionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	superAdmin := models.Principal{ID: "root", Role: models.RoleSuperAdmin, Approved: true}

	created, err := env.services.Organization().CreateInstitution(ctx,
		&models.InstitutionCreateRequest{Name: "Ogdenville Academy"}, superAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Approved {
		t.Error("new institutions must start unapproved")
	}

	// Structure changes are blocked until approval.
	_, err = env.services.Organization().CreateGrade(ctx,
		&models.GradeCreateRequest{InstitutionID: created.ID, Name: "Grade 1"}, superAdmin)
	if !errors.Is(err, ErrInstitutionPending) {
		t.Errorf("grade on pending institution error = %v, want ErrInstitutionPending", err)
	}

	if err := env.services.Organization().ApproveInstitution(ctx, created.ID, superAdmin); err != nil {
		t.Fatalf("approve: %v", err)
	}

	grade, err := env.services.Organization().CreateGrade(ctx,
		&models.GradeCreateRequest{InstitutionID: created.ID, Name: "Grade 1"}, superAdmin)
	if err != nil {
		t.Fatalf("create grade: %v", err)
	}

	subject, err := env.services.Organization().CreateSubject(ctx,
		&models.SubjectCreateRequest{GradeID: grade.ID, Name: "Science"}, superAdmin)
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	if subject.GradeID != grade.ID {
		t.Errorf("subject grade = %d, want %d", subject.GradeID, grade.ID)
	}
}

func TestInstitutionManagementSuperAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instID := env.institution.ID
	admin := models.Principal{ID: "admin-1", Role: models.RoleAdmin, InstitutionID: &instID, Approved: true}

	if _, err := env.services.Organization().CreateInstitution(ctx,
		&models.InstitutionCreateRequest{Name: "Rogue School"}, admin); !IsPermissionError(err) {
		t.Errorf("admin create institution error = %v, want permission error", err)
	}
	if err := env.services.Organization().ApproveInstitution(ctx, instID, admin); !IsPermissionError(err) {
		t.Errorf("admin approve institution error = %v, want permission error", err)
	}
	if err := env.services.Organization().DeleteInstitution(ctx, instID, admin); !IsPermissionError(err) {
		t.Errorf("admin delete institution error = %v, want permission error", err)
	}
}

func TestGradeManagementConfinedToTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := models.Institution{Name: "Shelbyville High", Approved: true}
	if err := env.repo.Institution().Create(ctx, &other); err != nil {
		t.Fatalf("seed institution: %v", err)
	}

	instID := env.institution.ID
	admin := models.Principal{ID: "admin-1", Role: models.RoleAdmin, InstitutionID: &instID, Approved: true}

	if _, err := env.services.Organization().CreateGrade(ctx,
		&models.GradeCreateRequest{InstitutionID: other.ID, Name: "Grade 5"}, admin); !IsPermissionError(err) {
		t.Errorf("cross-tenant grade error = %v, want permission error", err)
	}

	grade, err := env.services.Organization().CreateGrade(ctx,
		&models.GradeCreateRequest{InstitutionID: instID, Name: "Grade 5"}, admin)
	if err != nil {
		t.Fatalf("own-tenant grade: %v", err)
	}

	grades, err := env.services.Organization().ListGrades(ctx, instID, admin)
	if err != nil {
		t.Fatalf("list grades: %v", err)
	}
	found := false
	for _, g := range grades {
		if g.ID == grade.ID {
			found = true
		}
	}
	if !found {
		t.Error("created grade missing from listing")
	}
}

func TestListInstitutionsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	superAdmin := models.Principal{ID: "root", Role: models.RoleSuperAdmin, Approved: true}

	pending := models.Institution{Name: "Pending Prep", Approved: false}
	if err := env.repo.Institution().Create(ctx, &pending); err != nil {
		t.Fatalf("seed institution: %v", err)
	}

	approved := true
	institutions, _, err := env.services.Organization().ListInstitutions(ctx,
		repositories.InstitutionFilters{Approved: &approved}, superAdmin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, inst := range institutions {
		if !inst.Approved {
			t.Errorf("approved filter leaked pending institution %q", inst.Name)
		}
	}

	if _, _, err := env.services.Organization().ListInstitutions(ctx,
		repositories.InstitutionFilters{}, env.teacher); !IsPermissionError(err) {
		t.Errorf("teacher list institutions error = %v, want permission error", err)
	}
}
