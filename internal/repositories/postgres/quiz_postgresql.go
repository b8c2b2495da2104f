package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/cache"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create persists the quiz with its settings and questions in one insert
// tree; gorm cascades the associations.
func (r *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	if err := r.db.WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (r *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := r.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := r.db.WithContext(ctx).
			Preload("Settings").
			First(&dbQuiz, id).Error; err != nil {
			return nil, err
		}
		return &dbQuiz, nil
	})
	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

func (r *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Settings").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.\"order\" ASC, questions.id ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	if err := r.db.WithContext(ctx).
		Omit("Questions", "Attempts").
		Save(quiz).Error; err != nil {
		return err
	}
	cache.InvalidateQuizCache(ctx, r.cacheManager, quiz.ID, quiz.CreatedBy)
	return nil
}

func (r *QuizPostgreSQL) UpdateSettings(ctx context.Context, settings *models.QuizSettings) error {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return err
	}
	cache.SafeDelete(ctx, r.cacheManager.Quiz, fmt.Sprintf("id:%d", settings.QuizID))
	return nil
}

func (r *QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Quiz{}, id).Error; err != nil {
		return err
	}
	cache.SafeDelete(ctx, r.cacheManager.Quiz, fmt.Sprintf("id:%d", id))
	return nil
}

func (r *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Quiz{})
	query = r.helpers.ApplyQuizFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Settings").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (r *QuizPostgreSQL) ListBySubject(ctx context.Context, subjectID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.SubjectID = &subjectID
	return r.List(ctx, filters)
}

func (r *QuizPostgreSQL) HasAttempts(ctx context.Context, id uint) (bool, error) {
	count, err := r.helpers.CountAttempts(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
