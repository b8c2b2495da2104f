package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/EduCore-2026/quiz-platform/internal/models"
)

func TestExportQuizResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.services.Attempt().Submit(ctx, resp.ID, &models.SubmitAttemptRequest{
		Answers: map[string]string{env.questionKey(t, 0): "4", env.questionKey(t, 1): "6"},
	}, env.student); err != nil {
		t.Fatalf("submit: %v", err)
	}

	data, filename, err := env.services.Report().ExportQuizResults(ctx, env.quiz.ID, env.teacher)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("filename = %q, want .xlsx suffix", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one attempt", len(rows))
	}
	if rows[0][0] != "Student" {
		t.Errorf("header[0] = %q, want Student", rows[0][0])
	}
	if rows[1][2] != "3" {
		t.Errorf("score cell = %q, want 3", rows[1][2])
	}
	if rows[1][4] != "100" {
		t.Errorf("percentage cell = %q, want 100", rows[1][4])
	}
}

func TestExportDeniedForStudents(t *testing.T) {
	env := newTestEnv(t)

	if _, _, err := env.services.Report().ExportQuizResults(context.Background(), env.quiz.ID, env.student); !IsPermissionError(err) {
		t.Errorf("student export error = %v, want permission error", err)
	}
}
