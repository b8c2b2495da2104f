package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/events"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories/memory"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type handlerTestEnv struct {
	repo    *memory.Repository
	router  *gin.Engine
	actor   models.Principal
	quiz    models.Quiz
	student models.Principal
	teacher models.Principal
}

func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	repo := memory.NewRepository()
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	publisher := events.NewMockEventPublisher(slogger)
	manager := services.NewServiceManager(repo, nil, slogger, validator.New(), publisher)

	env := &handlerTestEnv{repo: repo}

	institution := models.Institution{Name: "Springfield High", Approved: true}
	if err := repo.Institution().Create(ctx, &institution); err != nil {
		t.Fatalf("seed institution: %v", err)
	}
	grade := models.Grade{InstitutionID: institution.ID, Name: "Grade 10"}
	if err := repo.Grade().Create(ctx, &grade); err != nil {
		t.Fatalf("seed grade: %v", err)
	}
	subject := models.Subject{GradeID: grade.ID, Name: "Mathematics"}
	if err := repo.Subject().Create(ctx, &subject); err != nil {
		t.Fatalf("seed subject: %v", err)
	}

	env.quiz = models.Quiz{
		Title:        "Arithmetic check",
		SubjectID:    subject.ID,
		StartTime:    time.Now().Add(-time.Hour),
		EndTime:      time.Now().Add(time.Hour),
		DurationMins: 30,
		CreatedBy:    "teacher-1",
		Questions: []models.Question{
			mustQuestion(t, "2 + 2 = ?", []string{"3", "4"}, "4", 1, 1),
		},
	}
	if err := repo.Quiz().Create(ctx, &env.quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	instID := institution.ID
	env.student = models.Principal{ID: "student-1", Role: models.RoleStudent, InstitutionID: &instID, Approved: true}
	env.teacher = models.Principal{ID: "teacher-1", Role: models.RoleTeacher, InstitutionID: &instID, Approved: true}
	env.actor = env.student

	quizHandler := NewQuizHandler(manager.Quiz(), manager.Question(), logger)
	attemptHandler := NewAttemptHandler(manager.Attempt(), manager.Report(), logger)

	router := gin.New()
	// Stand-in for the auth middleware: whoever env.actor is at request time.
	router.Use(func(c *gin.Context) {
		c.Set("principal", env.actor)
		c.Set("user_id", env.actor.ID)
		c.Set("user_role", env.actor.Role)
		c.Next()
	})
	router.POST("/quizzes/:id/attempts", attemptHandler.StartAttempt)
	router.POST("/attempts/:id/submit", attemptHandler.SubmitAttempt)
	router.GET("/quizzes/:id", quizHandler.GetQuiz)
	router.GET("/quizzes/:id/results", attemptHandler.GetQuizResults)
	router.DELETE("/quizzes/:id", quizHandler.DeleteQuiz)
	env.router = router

	return env
}

func mustQuestion(t *testing.T, text string, options []string, answer string, points, order int) models.Question {
	t.Helper()
	raw, err := json.Marshal(options)
	if err != nil {
		t.Fatalf("encode options: %v", err)
	}
	return models.Question{
		Text:       text,
		Options:    raw,
		Answer:     answer,
		Difficulty: models.DifficultyMedium,
		Points:     points,
		Order:      order,
	}
}

func (env *handlerTestEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *handlerTestEnv) quizPath(suffix string) string {
	return "/quizzes/" + strconv.Itoa(int(env.quiz.ID)) + suffix
}

func TestStartAttemptEndpoint(t *testing.T) {
	env := newHandlerTestEnv(t)

	w := env.do(http.MethodPost, env.quizPath("/attempts"), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	// A second start conflicts.
	w = env.do(http.MethodPost, env.quizPath("/attempts"), "")
	if w.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409, body %s", w.Code, w.Body.String())
	}
}

func TestSubmitEndpointStatusMapping(t *testing.T) {
	env := newHandlerTestEnv(t)
	ctx := context.Background()

	start := env.do(http.MethodPost, env.quizPath("/attempts"), "")
	if start.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", start.Code, start.Body.String())
	}
	var attempt services.AttemptResponse
	if err := json.Unmarshal(start.Body.Bytes(), &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}

	quiz, err := env.repo.Quiz().GetByIDWithQuestions(ctx, env.quiz.ID)
	if err != nil {
		t.Fatalf("reload quiz: %v", err)
	}
	key := strconv.FormatUint(uint64(quiz.Questions[0].ID), 10)

	body := `{"answers":{"` + key + `":"4"}}`
	path := "/attempts/" + strconv.Itoa(int(attempt.ID)) + "/submit"

	w := env.do(http.MethodPost, path, body)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var result services.SubmitResultResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Score != 1 || result.Percentage != 100 {
		t.Errorf("result = %+v, want score 1 percentage 100", result)
	}

	// Double submit maps to 409.
	w = env.do(http.MethodPost, path, body)
	if w.Code != http.StatusConflict {
		t.Errorf("double submit status = %d, want 409", w.Code)
	}

	// Malformed payload maps to 400.
	w = env.do(http.MethodPost, path, `{"answers":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad payload status = %d, want 400", w.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	env := newHandlerTestEnv(t)

	// Unknown quiz maps to 404.
	env.actor = env.teacher
	w := env.do(http.MethodGet, "/quizzes/9999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing quiz status = %d, want 404", w.Code)
	}

	// Deleting a quiz that has attempts maps to 422.
	env.actor = env.student
	w = env.do(http.MethodPost, env.quizPath("/attempts"), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", w.Code, w.Body.String())
	}
	env.actor = env.teacher
	w = env.do(http.MethodDelete, env.quizPath(""), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("delete with attempts status = %d, want 422, body %s", w.Code, w.Body.String())
	}

	// Results access from an admin of another tenant maps to 403.
	env.actor = models.Principal{ID: "outsider", Role: models.RoleAdmin, Approved: true}
	w = env.do(http.MethodGet, env.quizPath("/results"), "")
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider results status = %d, want 403, body %s", w.Code, w.Body.String())
	}

	// An unapproved account is an authorization denial, also 403.
	env.actor = models.Principal{ID: "student-2", Role: models.RoleStudent, InstitutionID: env.student.InstitutionID, Approved: false}
	w = env.do(http.MethodPost, env.quizPath("/attempts"), "")
	if w.Code != http.StatusForbidden {
		t.Errorf("unapproved start status = %d, want 403, body %s", w.Code, w.Body.String())
	}
}
