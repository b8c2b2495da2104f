package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	quizzes   QuizService
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, quizzes QuizService) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		quizzes:   quizzes,
	}
}

// Add appends a question to a quiz. The question set freezes as soon as the
// first attempt exists: in-flight attempts were graded against a MaxScore
// snapshot that edits must not invalidate for future takers.
func (s *questionService) Add(ctx context.Context, quizID uint, req *models.QuestionCreateRequest, actor models.Principal) (*models.Question, error) {
	if err := s.requireEditableQuiz(ctx, quizID, actor, "add_question"); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateQuestionCreate(req); errs != nil {
		return nil, errs
	}

	existing, err := s.repo.Question().GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz questions: %w", err)
	}

	question, err := buildQuestion(req, len(existing)+1)
	if err != nil {
		return nil, err
	}
	question.QuizID = quizID

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question added", "quiz_id", quizID, "question_id", question.ID)
	return question, nil
}

func (s *questionService) Update(ctx context.Context, quizID, questionID uint, req *models.QuestionUpdateRequest, actor models.Principal) (*models.Question, error) {
	if err := s.requireEditableQuiz(ctx, quizID, actor, "update_question"); err != nil {
		return nil, err
	}

	question, err := s.getQuizQuestion(ctx, quizID, questionID)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = datatypes.JSON(raw)
	}
	if req.Answer != nil {
		question.Answer = *req.Answer
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Points != nil {
		question.Points = *req.Points
	}

	if errs := s.validator.ValidateQuestion(question); errs != nil {
		return nil, errs
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated", "quiz_id", quizID, "question_id", questionID)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, quizID, questionID uint, actor models.Principal) error {
	if err := s.requireEditableQuiz(ctx, quizID, actor, "delete_question"); err != nil {
		return err
	}
	if _, err := s.getQuizQuestion(ctx, quizID, questionID); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "quiz_id", quizID, "question_id", questionID)
	return nil
}

func (s *questionService) ListByQuiz(ctx context.Context, quizID uint, actor models.Principal) ([]*models.Question, error) {
	if _, err := s.quizzes.GetByID(ctx, quizID, actor); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	if actor.Role == models.RoleStudent {
		for i := range questions {
			sanitized := questions[i].Sanitized()
			questions[i] = &sanitized
		}
	}
	return questions, nil
}

// ===== HELPERS =====

func (s *questionService) requireEditableQuiz(ctx context.Context, quizID uint, actor models.Principal, action string) error {
	quiz, err := s.quizzes.GetByID(ctx, quizID, actor)
	if err != nil {
		return err
	}
	if !quiz.CanEdit {
		return NewPermissionError(actor.ID, quizID, "quiz", action, "not owner or institution admin")
	}

	hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, quizID)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if hasAttempts {
		return ErrQuizHasAttempts
	}
	return nil
}

func (s *questionService) getQuizQuestion(ctx context.Context, quizID, questionID uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

func buildQuestion(req *models.QuestionCreateRequest, order int) (*models.Question, error) {
	raw, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	points := req.Points
	if points <= 0 {
		points = 1
	}

	return &models.Question{
		Text:       req.Text,
		Options:    datatypes.JSON(raw),
		Answer:     req.Answer,
		Difficulty: difficulty,
		Points:     points,
		Order:      order,
	}, nil
}
