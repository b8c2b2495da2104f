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

// activeAttemptIndex is the partial unique index backing the
// one-active-attempt rule:
//
//	CREATE UNIQUE INDEX idx_one_active_attempt
//	ON quiz_attempts (quiz_id, student_id) WHERE NOT completed;
//
// AutoMigrate does not create partial indexes; see EnsureAttemptIndexes.
const activeAttemptIndex = "idx_one_active_attempt"

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// EnsureAttemptIndexes creates the partial unique index the attempt
// lifecycle relies on. Called once at startup after migration.
func EnsureAttemptIndexes(db *gorm.DB) error {
	return db.Exec(fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s
		 ON quiz_attempts (quiz_id, student_id) WHERE NOT completed`,
		activeAttemptIndex,
	)).Error
}

// Create inserts a new in-progress attempt. The partial unique index is the
// sole arbiter of the one-active-attempt rule; a violation maps to
// ErrDuplicateActiveAttempt so concurrent starts resolve to exactly one
// winner without any read-then-write race.
func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if err := a.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if isUniqueViolation(err, activeAttemptIndex) {
			return fmt.Errorf("quiz %d student %s: %w",
				attempt.QuizID, attempt.StudentID, repositories.ErrDuplicateActiveAttempt)
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithQuiz(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Preload("Quiz").
		Preload("Quiz.Settings").
		Preload("Quiz.Questions").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, quizID uint, studentID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND completed = ?", quizID, studentID, false).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// CompleteAttempt performs the single guarded update that finishes an
// attempt. The completed = false predicate makes the transition
// first-writer-wins: a second submit matches zero rows and the stored score
// is never touched again.
func (a *AttemptPostgreSQL) CompleteAttempt(ctx context.Context, id uint, completion repositories.AttemptCompletion) error {
	result := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]interface{}{
			"answers":            completion.Answers,
			"score":              completion.Score,
			"completed":          true,
			"submitted_at":       completion.SubmittedAt,
			"time_spent_minutes": completion.TimeSpentMinutes,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("attempt %d: %w", id, repositories.ErrAttemptAlreadyCompleted)
	}
	return nil
}

func (a *AttemptPostgreSQL) ListByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("quiz_id = ?", quizID)
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Student").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("student_id = ?", studentID)
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Quiz").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetQuizAttemptStats(ctx context.Context, quizID uint) (*repositories.QuizAttemptStats, error) {
	cacheKey := fmt.Sprintf("quiz:%d:attempts", quizID)
	var stats repositories.QuizAttemptStats

	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var fresh repositories.QuizAttemptStats

		totalAttempts, err := a.helpers.CountAttempts(ctx, quizID)
		if err != nil {
			return nil, err
		}
		fresh.TotalAttempts = int(totalAttempts)

		var avgScore, avgTimeSpent float64
		var completedCount int64
		row := a.db.WithContext(ctx).
			Model(&models.QuizAttempt{}).
			Where("quiz_id = ? AND completed = ?", quizID, true).
			Select("COALESCE(AVG(score), 0), COALESCE(AVG(time_spent_minutes), 0), COUNT(*)").
			Row()
		if err := row.Scan(&avgScore, &avgTimeSpent, &completedCount); err != nil {
			return nil, err
		}

		fresh.CompletedAttempts = int(completedCount)
		fresh.AverageScore = avgScore
		fresh.AverageTimeSpent = int(avgTimeSpent)
		return &fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
