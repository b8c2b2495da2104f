package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/access"
	"github.com/EduCore-2026/quiz-platform/internal/events"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *quizService) Create(ctx context.Context, req *models.QuizCreateRequest, actor models.Principal) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "subject_id", req.SubjectID, "creator_id", actor.ID)

	if !access.CanCreateQuiz(actor) {
		return nil, NewPermissionError(actor.ID, req.SubjectID, "quiz", "create", "role cannot author quizzes")
	}
	if errs := s.validator.ValidateQuizCreate(req); errs != nil {
		return nil, errs
	}

	subject, err := s.repo.Subject().GetByIDWithGrade(ctx, req.SubjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	if !access.CanAccessInstitution(actor, subject.Grade.InstitutionID) {
		return nil, NewPermissionError(actor.ID, req.SubjectID, "subject", "create_quiz", "subject belongs to another institution")
	}
	if req.InstitutionID != nil && !access.CanAccessInstitution(actor, *req.InstitutionID) {
		return nil, NewPermissionError(actor.ID, *req.InstitutionID, "institution", "create_quiz", "not a member")
	}

	quiz := &models.Quiz{
		Title:         req.Title,
		Description:   req.Description,
		InstitutionID: req.InstitutionID,
		SubjectID:     req.SubjectID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DurationMins:  req.DurationMins,
		CreatedBy:     actor.ID,
		Settings:      defaultSettings(req.Settings),
		Questions:     make([]models.Question, 0, len(req.Questions)),
	}

	for i, qr := range req.Questions {
		question, err := buildQuestion(&qr, i+1)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, *question)
	}

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.publishQuizEvent(ctx, quiz)

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "questions", len(quiz.Questions))

	return s.buildQuizResponse(ctx, quiz, actor), nil
}

func (s *quizService) GetByID(ctx context.Context, id uint, actor models.Principal) (*QuizResponse, error) {
	quiz, err := s.getAccessibleQuiz(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.buildQuizResponse(ctx, quiz, actor), nil
}

func (s *quizService) GetByIDWithQuestions(ctx context.Context, id uint, actor models.Principal) (*QuizResponse, error) {
	if _, err := s.getAccessibleQuiz(ctx, id, actor); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}

	// Students never see the answer key through the quiz view.
	if actor.Role == models.RoleStudent {
		for i := range quiz.Questions {
			quiz.Questions[i] = quiz.Questions[i].Sanitized()
		}
	}

	return s.buildQuizResponse(ctx, quiz, actor), nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *models.QuizUpdateRequest, actor models.Principal) (*QuizResponse, error) {
	quiz, err := s.getManagedQuiz(ctx, id, actor, "update")
	if err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateQuizUpdate(req, quiz); errs != nil {
		return nil, errs
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.StartTime != nil {
		quiz.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		quiz.EndTime = *req.EndTime
	}
	if req.DurationMins != nil {
		quiz.DurationMins = *req.DurationMins
	}
	applySettings(&quiz.Settings, req.Settings)

	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "actor_id", actor.ID)
	return s.buildQuizResponse(ctx, quiz, actor), nil
}

func (s *quizService) UpdateSettings(ctx context.Context, id uint, req *models.QuizSettingsRequest, actor models.Principal) (*QuizResponse, error) {
	quiz, err := s.getManagedQuiz(ctx, id, actor, "update_settings")
	if err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(req); errs != nil {
		return nil, errs
	}

	applySettings(&quiz.Settings, req)
	quiz.Settings.QuizID = quiz.ID

	if err := s.repo.Quiz().UpdateSettings(ctx, &quiz.Settings); err != nil {
		return nil, fmt.Errorf("failed to update quiz settings: %w", err)
	}

	return s.buildQuizResponse(ctx, quiz, actor), nil
}

// Delete removes a quiz. A quiz that has been attempted is part of student
// history and cannot be deleted.
func (s *quizService) Delete(ctx context.Context, id uint, actor models.Principal) error {
	if _, err := s.getManagedQuiz(ctx, id, actor, "delete"); err != nil {
		return err
	}

	hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if hasAttempts {
		return ErrQuizHasAttempts
	}

	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id, "actor_id", actor.ID)
	return nil
}

func (s *quizService) List(ctx context.Context, params models.ListQuizzesParams, actor models.Principal) (*QuizListResponse, error) {
	filters := quizFiltersFromParams(params)

	// Institution-bound roles only list quizzes of their own tenant unless
	// they narrow further themselves.
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
	default:
		if filters.InstitutionID == nil {
			filters.InstitutionID = actor.InstitutionID
		} else if !access.CanAccessInstitution(actor, *filters.InstitutionID) {
			return nil, NewPermissionError(actor.ID, *filters.InstitutionID, "institution", "list_quizzes", "not a member")
		}
	}

	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	responses := make([]*QuizResponse, len(quizzes))
	for i, quiz := range quizzes {
		responses[i] = s.buildQuizResponse(ctx, quiz, actor)
	}

	return &QuizListResponse{
		Quizzes: responses,
		Total:   total,
		Page:    params.Page,
		Size:    len(responses),
	}, nil
}

// ===== HELPERS =====

func (s *quizService) getAccessibleQuiz(ctx context.Context, id uint, actor models.Principal) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	institutionID, err := effectiveInstitutionID(ctx, s.repo, quiz)
	if err != nil {
		return nil, err
	}
	if institutionID != nil && !access.CanAccessInstitution(actor, *institutionID) {
		return nil, NewPermissionError(actor.ID, id, "quiz", "read", "quiz belongs to another institution")
	}
	return quiz, nil
}

func (s *quizService) getManagedQuiz(ctx context.Context, id uint, actor models.Principal, action string) (*models.Quiz, error) {
	quiz, err := s.getAccessibleQuiz(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !s.canManageQuiz(actor, quiz) {
		return nil, NewPermissionError(actor.ID, id, "quiz", action, "not owner or institution admin")
	}
	return quiz, nil
}

// canManageQuiz: the owner always; platform-wide roles always; an admin for
// quizzes inside their institution. Teachers only manage their own quizzes.
func (s *quizService) canManageQuiz(actor models.Principal, quiz *models.Quiz) bool {
	if quiz.CreatedBy == actor.ID {
		return true
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
		return true
	case models.RoleAdmin:
		return quiz.InstitutionID != nil && actor.BelongsTo(*quiz.InstitutionID)
	}
	return false
}

func (s *quizService) buildQuizResponse(ctx context.Context, quiz *models.Quiz, actor models.Principal) *QuizResponse {
	manage := s.canManageQuiz(actor, quiz)
	return &QuizResponse{
		Quiz:      quiz,
		CanEdit:   manage,
		CanDelete: manage,
		CanTake:   access.CanTakeQuiz(actor),
	}
}

func (s *quizService) publishQuizEvent(ctx context.Context, quiz *models.Quiz) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventQuizCreated, events.QuizEvent{
		QuizID:        quiz.ID,
		SubjectID:     quiz.SubjectID,
		InstitutionID: quiz.InstitutionID,
		CreatedBy:     quiz.CreatedBy,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz event", "quiz_id", quiz.ID, "error", err)
	}
}

func defaultSettings(req *models.QuizSettingsRequest) models.QuizSettings {
	settings := models.QuizSettings{
		ShowResults: true,
		TimeLimit:   true,
	}
	applySettings(&settings, req)
	return settings
}

func applySettings(settings *models.QuizSettings, req *models.QuizSettingsRequest) {
	if req == nil {
		return
	}
	if req.AllowRetake != nil {
		settings.AllowRetake = *req.AllowRetake
	}
	if req.ShowResults != nil {
		settings.ShowResults = *req.ShowResults
	}
	if req.RandomizeQuestions != nil {
		settings.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.TimeLimit != nil {
		settings.TimeLimit = *req.TimeLimit
	}
	if req.PassingScore != nil {
		settings.PassingScore = *req.PassingScore
	}
}

func quizFiltersFromParams(params models.ListQuizzesParams) repositories.QuizFilters {
	size := params.Size
	if size <= 0 {
		size = 20
	}
	page := params.Page
	if page < 0 {
		page = 0
	}
	return repositories.QuizFilters{
		SubjectID:     params.SubjectID,
		InstitutionID: params.InstitutionID,
		CreatedBy:     params.CreatedBy,
		Search:        params.Search,
		Limit:         size,
		Offset:        page * size,
		SortBy:        params.SortBy,
		SortOrder:     params.SortDir,
	}
}
