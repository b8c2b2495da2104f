package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/access"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type organizationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewOrganizationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) OrganizationService {
	return &organizationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

// ===== INSTITUTIONS =====

// CreateInstitution registers a new institution. It starts unapproved; a
// super admin flips it live via ApproveInstitution.
func (s *organizationService) CreateInstitution(ctx context.Context, req *models.InstitutionCreateRequest, actor models.Principal) (*models.Institution, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, NewPermissionError(actor.ID, req.Name, "institution", "create", "super admin only")
	}
	if errs := s.validator.Validate(req); errs != nil {
		return nil, errs
	}

	institution := &models.Institution{Name: req.Name, Approved: false}
	if err := s.repo.Institution().Create(ctx, institution); err != nil {
		return nil, fmt.Errorf("failed to create institution: %w", err)
	}

	s.logger.Info("Institution created", "institution_id", institution.ID, "name", institution.Name)
	return institution, nil
}

func (s *organizationService) GetInstitution(ctx context.Context, id uint, actor models.Principal) (*models.Institution, error) {
	if !access.CanAccessInstitution(actor, id) {
		return nil, NewPermissionError(actor.ID, id, "institution", "read", "not a member")
	}

	institution, err := s.repo.Institution().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInstitutionNotFound
		}
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return institution, nil
}

func (s *organizationService) ListInstitutions(ctx context.Context, filters repositories.InstitutionFilters, actor models.Principal) ([]*models.Institution, int64, error) {
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
	default:
		return nil, 0, NewPermissionError(actor.ID, nil, "institutions", "list", "platform roles only")
	}

	institutions, total, err := s.repo.Institution().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list institutions: %w", err)
	}
	return institutions, total, nil
}

func (s *organizationService) ApproveInstitution(ctx context.Context, id uint, actor models.Principal) error {
	if actor.Role != models.RoleSuperAdmin {
		return NewPermissionError(actor.ID, id, "institution", "approve", "super admin only")
	}

	if err := s.repo.Institution().SetApproved(ctx, id, true); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInstitutionNotFound
		}
		return fmt.Errorf("failed to approve institution: %w", err)
	}

	s.logger.Info("Institution approved", "institution_id", id, "actor_id", actor.ID)
	return nil
}

func (s *organizationService) DeleteInstitution(ctx context.Context, id uint, actor models.Principal) error {
	if actor.Role != models.RoleSuperAdmin {
		return NewPermissionError(actor.ID, id, "institution", "delete", "super admin only")
	}

	if err := s.repo.Institution().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInstitutionNotFound
		}
		return fmt.Errorf("failed to delete institution: %w", err)
	}

	s.logger.Info("Institution deleted", "institution_id", id, "actor_id", actor.ID)
	return nil
}

// ===== GRADES =====

func (s *organizationService) CreateGrade(ctx context.Context, req *models.GradeCreateRequest, actor models.Principal) (*models.Grade, error) {
	if errs := s.validator.Validate(req); errs != nil {
		return nil, errs
	}
	if err := s.requireInstitutionManager(ctx, req.InstitutionID, actor, "create_grade"); err != nil {
		return nil, err
	}

	grade := &models.Grade{InstitutionID: req.InstitutionID, Name: req.Name}
	if err := s.repo.Grade().Create(ctx, grade); err != nil {
		return nil, fmt.Errorf("failed to create grade: %w", err)
	}

	s.logger.Info("Grade created", "grade_id", grade.ID, "institution_id", req.InstitutionID)
	return grade, nil
}

func (s *organizationService) ListGrades(ctx context.Context, institutionID uint, actor models.Principal) ([]*models.Grade, error) {
	if !access.CanAccessInstitution(actor, institutionID) {
		return nil, NewPermissionError(actor.ID, institutionID, "institution", "list_grades", "not a member")
	}

	grades, err := s.repo.Grade().ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return grades, nil
}

// ===== SUBJECTS =====

func (s *organizationService) CreateSubject(ctx context.Context, req *models.SubjectCreateRequest, actor models.Principal) (*models.Subject, error) {
	if errs := s.validator.Validate(req); errs != nil {
		return nil, errs
	}

	grade, err := s.repo.Grade().GetByID(ctx, req.GradeID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGradeNotFound
		}
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	if err := s.requireInstitutionManager(ctx, grade.InstitutionID, actor, "create_subject"); err != nil {
		return nil, err
	}

	subject := &models.Subject{GradeID: req.GradeID, Name: req.Name}
	if err := s.repo.Subject().Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	s.logger.Info("Subject created", "subject_id", subject.ID, "grade_id", req.GradeID)
	return subject, nil
}

func (s *organizationService) ListSubjects(ctx context.Context, gradeID uint, actor models.Principal) ([]*models.Subject, error) {
	grade, err := s.repo.Grade().GetByID(ctx, gradeID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGradeNotFound
		}
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	if !access.CanAccessInstitution(actor, grade.InstitutionID) {
		return nil, NewPermissionError(actor.ID, gradeID, "grade", "list_subjects", "not a member")
	}

	subjects, err := s.repo.Subject().ListByGrade(ctx, gradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

// requireInstitutionManager: structure changes inside an institution need an
// admin of that institution or a platform-wide role, and the institution
// itself must be approved.
func (s *organizationService) requireInstitutionManager(ctx context.Context, institutionID uint, actor models.Principal, action string) error {
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
	case models.RoleAdmin:
		if !actor.BelongsTo(institutionID) {
			return NewPermissionError(actor.ID, institutionID, "institution", action, "not a member")
		}
	default:
		return NewPermissionError(actor.ID, institutionID, "institution", action, "admin only")
	}

	institution, err := s.repo.Institution().GetByID(ctx, institutionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInstitutionNotFound
		}
		return fmt.Errorf("failed to get institution: %w", err)
	}
	if !institution.Approved {
		return ErrInstitutionPending
	}
	return nil
}
