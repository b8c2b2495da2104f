package validator

import (
	"testing"
	"time"

	"github.com/EduCore-2026/quiz-platform/internal/models"
)

func validQuizCreate() *models.QuizCreateRequest {
	return &models.QuizCreateRequest{
		Title:        "Algebra checkpoint",
		SubjectID:    1,
		StartTime:    time.Now().Add(time.Hour),
		EndTime:      time.Now().Add(2 * time.Hour),
		DurationMins: 30,
		Questions: []models.QuestionCreateRequest{
			{
				Text:    "2 + 2 = ?",
				Options: []string{"3", "4"},
				Answer:  "4",
				Points:  1,
			},
		},
	}
}

func TestValidateQuizCreate(t *testing.T) {
	v := New()

	t.Run("valid request passes", func(t *testing.T) {
		if errs := v.ValidateQuizCreate(validQuizCreate()); len(errs) != 0 {
			t.Fatalf("expected no errors, got %v", errs)
		}
	})

	t.Run("window start after end", func(t *testing.T) {
		req := validQuizCreate()
		req.StartTime, req.EndTime = req.EndTime, req.StartTime
		errs := v.ValidateQuizCreate(req)
		if !hasRule(errs, "quiz_window") {
			t.Fatalf("expected quiz_window error, got %v", errs)
		}
	})

	t.Run("window start equals end", func(t *testing.T) {
		req := validQuizCreate()
		req.EndTime = req.StartTime
		if !hasRule(v.ValidateQuizCreate(req), "quiz_window") {
			t.Fatal("expected quiz_window error for zero-length window")
		}
	})

	t.Run("missing title", func(t *testing.T) {
		req := validQuizCreate()
		req.Title = ""
		if len(v.ValidateQuizCreate(req)) == 0 {
			t.Fatal("expected error for missing title")
		}
	})
}

func TestValidateQuestionCreate(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		mutate   func(*models.QuestionCreateRequest)
		wantRule string
	}{
		{"single option", func(q *models.QuestionCreateRequest) {
			q.Options = []string{"only"}
			q.Answer = "only"
		}, "options_count"},
		{"seven options", func(q *models.QuestionCreateRequest) {
			q.Options = []string{"a", "b", "c", "d", "e", "f", "g"}
			q.Answer = "a"
		}, "options_count"},
		{"answer not in options", func(q *models.QuestionCreateRequest) {
			q.Answer = "5"
		}, "answer_in_options"},
		{"answer differs by case", func(q *models.QuestionCreateRequest) {
			q.Options = []string{"Paris", "London"}
			q.Answer = "paris"
		}, "answer_in_options"},
		{"duplicate options", func(q *models.QuestionCreateRequest) {
			q.Options = []string{"4", "4"}
			q.Answer = "4"
		}, "options_content"},
		{"blank option", func(q *models.QuestionCreateRequest) {
			q.Options = []string{"4", "  "}
			q.Answer = "4"
		}, "options_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.QuestionCreateRequest{
				Text:    "2 + 2 = ?",
				Options: []string{"3", "4"},
				Answer:  "4",
				Points:  1,
			}
			tt.mutate(req)
			errs := v.ValidateQuestionCreate(req)
			if !hasRule(errs, tt.wantRule) {
				t.Fatalf("expected rule %s, got %v", tt.wantRule, errs)
			}
		})
	}
}

func TestValidateQuizUpdateWindow(t *testing.T) {
	v := New()
	existing := &models.Quiz{
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
	}

	badStart := existing.EndTime.Add(time.Hour)
	req := &models.QuizUpdateRequest{StartTime: &badStart}
	if !hasRule(v.ValidateQuizUpdate(req, existing), "quiz_window") {
		t.Fatal("expected quiz_window error when merged start passes end")
	}

	goodStart := existing.StartTime.Add(10 * time.Minute)
	req = &models.QuizUpdateRequest{StartTime: &goodStart}
	if errs := v.ValidateQuizUpdate(req, existing); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func hasRule(errs ValidationErrors, rule string) bool {
	for _, e := range errs {
		if e.Rule == rule {
			return true
		}
	}
	return false
}
