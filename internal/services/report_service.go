package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

const resultsSheet = "Results"

type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ExportQuizResults renders every attempt on the quiz into an xlsx workbook.
// Only staff who can see all results may export.
func (s *reportService) ExportQuizResults(ctx context.Context, quizID uint, actor models.Principal) ([]byte, string, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrQuizNotFound
		}
		return nil, "", fmt.Errorf("failed to get quiz: %w", err)
	}

	institutionID, err := effectiveInstitutionID(ctx, s.repo, quiz)
	if err != nil {
		return nil, "", err
	}
	if !isResultsStaff(actor, quiz, institutionID) {
		return nil, "", NewPermissionError(actor.ID, quizID, "quiz", "export_results", "not institution staff")
	}

	attempts, _, err := s.repo.Attempt().ListByQuiz(ctx, quizID, repositories.AttemptFilters{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", resultsSheet)

	headers := []string{"Student", "Email", "Score", "Max Score", "Percentage", "Status", "Started At", "Submitted At", "Time Spent (min)"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for row, attempt := range attempts {
		values := attemptRow(attempt)
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("quiz_%d_results_%s.xlsx", quizID, time.Now().Format("20060102"))
	s.logger.Info("Quiz results exported", "quiz_id", quizID, "attempts", len(attempts), "actor_id", actor.ID)
	return buf.Bytes(), filename, nil
}

func attemptRow(attempt *models.QuizAttempt) []interface{} {
	name := attempt.StudentID
	email := ""
	if attempt.Student != nil {
		name = attempt.Student.FullName
		email = attempt.Student.Email
	}

	status := "in progress"
	submittedAt := ""
	timeSpent := interface{}("")
	if attempt.Completed {
		status = "completed"
		if attempt.SubmittedAt != nil {
			submittedAt = attempt.SubmittedAt.Format(time.RFC3339)
		}
		if attempt.TimeSpentMinutes != nil {
			timeSpent = *attempt.TimeSpentMinutes
		}
	}

	return []interface{}{
		name,
		email,
		attempt.Score,
		attempt.MaxScore,
		scorePercentage(attempt.Score, attempt.MaxScore),
		status,
		attempt.StartedAt.Format(time.RFC3339),
		submittedAt,
		timeSpent,
	}
}
