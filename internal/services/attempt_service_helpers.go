package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gorm.io/datatypes"

	"github.com/EduCore-2026/quiz-platform/internal/access"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

// effectiveInstitutionID resolves the institution a quiz belongs to: the
// quiz's own institution when set, otherwise the one reached through
// subject -> grade -> institution. A nil result means the quiz is global
// content visible to every tenant.
func effectiveInstitutionID(ctx context.Context, repo repositories.Repository, quiz *models.Quiz) (*uint, error) {
	if quiz.InstitutionID != nil {
		return quiz.InstitutionID, nil
	}

	subject, err := repo.Subject().GetByIDWithGrade(ctx, quiz.SubjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve quiz institution: %w", err)
	}

	institutionID := subject.Grade.InstitutionID
	if institutionID == 0 {
		return nil, nil
	}
	return &institutionID, nil
}

func totalPoints(questions []models.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// gradeAnswers scores the submission against the question set. Comparison is
// exact and case sensitive; a question with no submitted answer is stored as
// the empty string and scores zero. Keys not matching any question id are
// dropped.
func gradeAnswers(questions []models.Question, submitted map[string]string) (int, datatypes.JSON, error) {
	score := 0
	stored := make(map[string]string, len(questions))

	for _, q := range questions {
		key := strconv.FormatUint(uint64(q.ID), 10)
		answer := submitted[key]
		stored[key] = answer
		if answer == q.Answer {
			score += q.Points
		}
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return 0, nil, err
	}
	return score, datatypes.JSON(raw), nil
}

// scorePercentage rounds half up. A quiz with no points grades to zero
// rather than dividing by zero.
func scorePercentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Floor(float64(score)*100/float64(maxScore) + 0.5))
}

// buildAttemptResponse assembles the caller's view of an attempt. Students
// get sanitized questions while the attempt is open; once completed, or for
// staff, questions carry their answer key.
func buildAttemptResponse(attempt *models.QuizAttempt, quiz *models.Quiz, actor models.Principal) *AttemptResponse {
	resp := &AttemptResponse{
		QuizAttempt: attempt,
		CanSubmit:   !attempt.Completed && attempt.StudentID == actor.ID,
	}
	if quiz == nil {
		return resp
	}

	hideAnswers := actor.Role == models.RoleStudent && !attempt.Completed
	questions := make([]models.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if hideAnswers {
			questions[i] = q.Sanitized()
		} else {
			questions[i] = q
		}
	}
	resp.Questions = questions
	return resp
}

// isResultsStaff reports whether the actor sees every attempt on the quiz:
// the quiz owner, platform-wide roles, or institution staff of the quiz's
// effective institution.
func isResultsStaff(actor models.Principal, quiz *models.Quiz, institutionID *uint) bool {
	if actor.ID == quiz.CreatedBy {
		return true
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleGlobalContentCreator:
		return true
	case models.RoleAdmin, models.RoleTeacher:
		return institutionID != nil && access.CanAccessInstitution(actor, *institutionID)
	}
	return false
}

func attemptFiltersFromParams(params models.ListAttemptsParams) repositories.AttemptFilters {
	size := params.Size
	if size <= 0 {
		size = 20
	}
	page := params.Page
	if page < 0 {
		page = 0
	}
	return repositories.AttemptFilters{
		Completed: params.Completed,
		StudentID: params.StudentID,
		Limit:     size,
		Offset:    page * size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}
}

// buildResultsStats rounds the aggregates half-up. AverageScore covers
// completed attempts only; in-progress attempts have no score yet.
func buildResultsStats(stats *repositories.QuizAttemptStats) *models.QuizResultsStats {
	out := &models.QuizResultsStats{TotalAttempts: stats.TotalAttempts}
	out.AverageScore = int(math.Floor(stats.AverageScore + 0.5))
	if stats.TotalAttempts > 0 {
		rate := float64(stats.CompletedAttempts) * 100 / float64(stats.TotalAttempts)
		out.CompletionRate = int(math.Floor(rate + 0.5))
	}
	return out
}
