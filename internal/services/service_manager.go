package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/events"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type serviceManager struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher

	quiz         QuizService
	question     QuestionService
	attempt      AttemptService
	organization OrganizationService
	user         UserService
	report       ReportService
}

func NewServiceManager(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) ServiceManager {
	quiz := NewQuizService(repo, db, logger, v, publisher)
	return &serviceManager{
		repo:         repo,
		logger:       logger,
		publisher:    publisher,
		quiz:         quiz,
		question:     NewQuestionService(repo, db, logger, v, quiz),
		attempt:      NewAttemptService(repo, db, logger, v, publisher),
		organization: NewOrganizationService(repo, db, logger, v),
		user:         NewUserService(repo, db, logger, v),
		report:       NewReportService(repo, db, logger),
	}
}

func (m *serviceManager) Quiz() QuizService                 { return m.quiz }
func (m *serviceManager) Question() QuestionService         { return m.question }
func (m *serviceManager) Attempt() AttemptService           { return m.attempt }
func (m *serviceManager) Organization() OrganizationService { return m.organization }
func (m *serviceManager) User() UserService                 { return m.user }
func (m *serviceManager) Report() ReportService             { return m.report }

func (m *serviceManager) Initialize(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return err
	}
	m.logger.Info("Service manager initialized")
	return nil
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Error("Failed to close event publisher", "error", err)
		}
	}
	m.logger.Info("Service manager shut down")
	return nil
}
