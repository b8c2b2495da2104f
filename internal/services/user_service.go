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

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

// Register provisions a local record for an authenticated identity. Accounts
// always start unapproved; a manager approves them later.
func (s *userService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	if !user.Role.IsValid() {
		user.Role = models.RoleStudent
	}
	user.Approved = false

	if _, err := s.repo.User().GetByEmail(ctx, user.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string, actor models.Principal) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if actor.ID != id && !access.CanManageUser(actor, user.Role, user.InstitutionID) {
		return nil, NewPermissionError(actor.ID, id, "user", "read", "cannot manage this user")
	}
	return user, nil
}

// Update applies a partial update. The actor must be able to manage the user
// both as stored and as requested, so a manager can never move someone to a
// role or tenant they could not manage directly.
func (s *userService) Update(ctx context.Context, id string, req *models.UserUpdateRequest, actor models.Principal) (*models.User, error) {
	if errs := s.validator.Validate(req); errs != nil {
		return nil, errs
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !access.CanManageUser(actor, user.Role, user.InstitutionID) {
		return nil, NewPermissionError(actor.ID, id, "user", "update", "cannot manage this user")
	}

	targetRole := user.Role
	if req.Role != nil {
		targetRole = *req.Role
	}
	targetInst := user.InstitutionID
	if req.InstitutionID != nil {
		targetInst = req.InstitutionID
	}
	if (req.Role != nil || req.InstitutionID != nil) && !access.CanManageUser(actor, targetRole, targetInst) {
		return nil, NewPermissionError(actor.ID, id, "user", "update", "cannot assign this role or institution")
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.InstitutionID != nil {
		user.InstitutionID = req.InstitutionID
	}
	if req.Approved != nil {
		user.Approved = *req.Approved
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", id, "actor_id", actor.ID)
	return user, nil
}

func (s *userService) Approve(ctx context.Context, id string, actor models.Principal) (*models.User, error) {
	approved := true
	return s.Update(ctx, id, &models.UserUpdateRequest{Approved: &approved}, actor)
}

// List scopes results by role: platform-wide roles see all tenants, everyone
// else is pinned to their own institution.
func (s *userService) List(ctx context.Context, params models.ListUsersParams, actor models.Principal) ([]*models.User, int64, error) {
	filters := userFiltersFromParams(params)

	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
	case models.RoleAdmin, models.RoleTeacher:
		if filters.InstitutionID == nil {
			filters.InstitutionID = actor.InstitutionID
		} else if !access.CanAccessInstitution(actor, *filters.InstitutionID) {
			return nil, 0, NewPermissionError(actor.ID, *filters.InstitutionID, "institution", "list_users", "not a member")
		}
	default:
		return nil, 0, NewPermissionError(actor.ID, nil, "users", "list", "students cannot list users")
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func userFiltersFromParams(params models.ListUsersParams) repositories.UserFilters {
	size := params.Size
	if size <= 0 {
		size = 20
	}
	page := params.Page
	if page < 0 {
		page = 0
	}
	filters := repositories.UserFilters{
		InstitutionID: params.InstitutionID,
		Approved:      params.Approved,
		Search:        params.Search,
		Limit:         size,
		Offset:        page * size,
	}
	if params.Role != "" {
		role := params.Role
		filters.Role = &role
	}
	return filters
}
