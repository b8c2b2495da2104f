package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/EduCore-2026/quiz-platform/internal/events"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories/memory"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

type testEnv struct {
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	services  ServiceManager

	institution models.Institution
	subject     models.Subject
	quiz        models.Quiz
	student     models.Principal
	teacher     models.Principal
}

// newTestEnv seeds an approved institution with one grade, one subject and
// an open quiz holding two questions worth 1 and 2 points.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	repo := memory.NewRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	manager := NewServiceManager(repo, nil, logger, validator.New(), publisher)

	env := &testEnv{repo: repo, publisher: publisher, services: manager}

	env.institution = models.Institution{Name: "Springfield High", Approved: true}
	if err := repo.Institution().Create(ctx, &env.institution); err != nil {
		t.Fatalf("seed institution: %v", err)
	}

	grade := models.Grade{InstitutionID: env.institution.ID, Name: "Grade 10"}
	if err := repo.Grade().Create(ctx, &grade); err != nil {
		t.Fatalf("seed grade: %v", err)
	}

	env.subject = models.Subject{GradeID: grade.ID, Name: "Mathematics"}
	if err := repo.Subject().Create(ctx, &env.subject); err != nil {
		t.Fatalf("seed subject: %v", err)
	}

	q1, err := buildQuestion(&models.QuestionCreateRequest{
		Text: "2 + 2 = ?", Options: []string{"3", "4", "5"}, Answer: "4", Points: 1,
	}, 1)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}
	q2, err := buildQuestion(&models.QuestionCreateRequest{
		Text: "2 * 3 = ?", Options: []string{"5", "6", "7"}, Answer: "6", Points: 2,
	}, 2)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}

	env.quiz = models.Quiz{
		Title:        "Arithmetic check",
		SubjectID:    env.subject.ID,
		StartTime:    time.Now().Add(-time.Hour),
		EndTime:      time.Now().Add(time.Hour),
		DurationMins: 30,
		CreatedBy:    "teacher-1",
		Settings:     models.QuizSettings{ShowResults: true, TimeLimit: true},
		Questions:    []models.Question{*q1, *q2},
	}
	if err := repo.Quiz().Create(ctx, &env.quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	instID := env.institution.ID
	env.student = models.Principal{ID: "student-1", Role: models.RoleStudent, InstitutionID: &instID, Approved: true}
	env.teacher = models.Principal{ID: "teacher-1", Role: models.RoleTeacher, InstitutionID: &instID, Approved: true}

	return env
}

func (env *testEnv) questionKey(t *testing.T, idx int) string {
	t.Helper()
	quiz, err := env.repo.Quiz().GetByIDWithQuestions(context.Background(), env.quiz.ID)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if idx >= len(quiz.Questions) {
		t.Fatalf("question index %d out of range", idx)
	}
	return strconv.FormatUint(uint64(quiz.Questions[idx].ID), 10)
}

func TestStartSnapshotsMaxScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if resp.MaxScore != 3 {
		t.Errorf("max score = %d, want 3", resp.MaxScore)
	}
	if resp.Completed {
		t.Error("new attempt must not be completed")
	}
	if !resp.CanSubmit {
		t.Error("owner should be able to submit a fresh attempt")
	}
	for _, q := range resp.Questions {
		if q.Answer != "" {
			t.Errorf("question %d leaked its answer to a student", q.ID)
		}
	}
}

func TestSubmitScoresExactMatchesOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// First answer right, second wrong: only the 1-point question scores.
	req := &models.SubmitAttemptRequest{Answers: map[string]string{
		env.questionKey(t, 0): "4",
		env.questionKey(t, 1): "5",
	}}
	result, err := env.services.Attempt().Submit(ctx, resp.ID, req, env.student)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if result.Score != 1 {
		t.Errorf("score = %d, want 1", result.Score)
	}
	if result.MaxScore != 3 {
		t.Errorf("max score = %d, want 3", result.MaxScore)
	}
	if result.Percentage != 33 {
		t.Errorf("percentage = %d, want 33", result.Percentage)
	}
	if result.TimeSpentMinutes != 0 {
		t.Errorf("time spent = %d, want 0", result.TimeSpentMinutes)
	}
}

func TestSubmitStoresMissingAnswersAsEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	key0 := env.questionKey(t, 0)
	key1 := env.questionKey(t, 1)
	req := &models.SubmitAttemptRequest{Answers: map[string]string{key0: "4"}}
	if _, err := env.services.Attempt().Submit(ctx, resp.ID, req, env.student); err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, err := env.repo.Attempt().GetByID(ctx, resp.ID)
	if err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	answers, err := stored.AnswerMap()
	if err != nil {
		t.Fatalf("decode answers: %v", err)
	}
	if answers[key0] != "4" {
		t.Errorf("answer[%s] = %q, want \"4\"", key0, answers[key0])
	}
	if got, ok := answers[key1]; !ok || got != "" {
		t.Errorf("answer[%s] = %q (present=%v), want stored empty string", key1, got, ok)
	}
}

func TestCaseSensitiveGrading(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A quiz whose answer differs from the submission only by case.
	q, err := buildQuestion(&models.QuestionCreateRequest{
		Text: "Capital of France?", Options: []string{"Paris", "paris"}, Answer: "Paris", Points: 2,
	}, 1)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}
	quiz := models.Quiz{
		Title:        "Geography",
		SubjectID:    env.subject.ID,
		StartTime:    time.Now().Add(-time.Hour),
		EndTime:      time.Now().Add(time.Hour),
		DurationMins: 10,
		CreatedBy:    "teacher-1",
		Questions:    []models.Question{*q},
	}
	if err := env.repo.Quiz().Create(ctx, &quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	resp, err := env.services.Attempt().Start(ctx, quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	key := strconv.FormatUint(uint64(quiz.Questions[0].ID), 10)
	result, err := env.services.Attempt().Submit(ctx, resp.ID,
		&models.SubmitAttemptRequest{Answers: map[string]string{key: "paris"}}, env.student)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0 for case mismatch", result.Score)
	}
}

func TestConcurrentStartsProduceOneAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
		}(i)
	}
	wg.Wait()

	var won, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrActiveAttemptExists):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
	if conflicted != n-1 {
		t.Errorf("conflicts = %d, want %d", conflicted, n-1)
	}
}

func TestDoubleSubmitNeverRescores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	key0 := env.questionKey(t, 0)
	key1 := env.questionKey(t, 1)

	first, err := env.services.Attempt().Submit(ctx, resp.ID,
		&models.SubmitAttemptRequest{Answers: map[string]string{key0: "4", key1: "6"}}, env.student)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Score != 3 {
		t.Fatalf("first score = %d, want 3", first.Score)
	}

	_, err = env.services.Attempt().Submit(ctx, resp.ID,
		&models.SubmitAttemptRequest{Answers: map[string]string{key0: "3", key1: "5"}}, env.student)
	if !errors.Is(err, ErrAttemptAlreadySubmitted) {
		t.Fatalf("second submit error = %v, want ErrAttemptAlreadySubmitted", err)
	}

	stored, err := env.repo.Attempt().GetByID(ctx, resp.ID)
	if err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if stored.Score != 3 {
		t.Errorf("stored score = %d, want 3 (second submit must not rescore)", stored.Score)
	}
	answers, err := stored.AnswerMap()
	if err != nil {
		t.Fatalf("decode answers: %v", err)
	}
	if answers[key0] != "4" {
		t.Errorf("stored answers were overwritten by the losing submit")
	}
}

func TestStartRejectsClosedWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for name, window := range map[string][2]time.Time{
		"not yet open":   {time.Now().Add(time.Hour), time.Now().Add(2 * time.Hour)},
		"already closed": {time.Now().Add(-2 * time.Hour), time.Now().Add(-time.Hour)},
	} {
		quiz := models.Quiz{
			Title:        "Window " + name,
			SubjectID:    env.subject.ID,
			StartTime:    window[0],
			EndTime:      window[1],
			DurationMins: 10,
			CreatedBy:    "teacher-1",
		}
		if err := env.repo.Quiz().Create(ctx, &quiz); err != nil {
			t.Fatalf("seed quiz: %v", err)
		}
		if _, err := env.services.Attempt().Start(ctx, quiz.ID, env.student); !errors.Is(err, ErrQuizNotActive) {
			t.Errorf("%s: error = %v, want ErrQuizNotActive", name, err)
		}
	}
}

func TestStartRequiresApprovedStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unapproved := env.student
	unapproved.ID = "student-2"
	unapproved.Approved = false
	if _, err := env.services.Attempt().Start(ctx, env.quiz.ID, unapproved); !errors.Is(err, ErrUserNotApproved) {
		t.Errorf("unapproved start error = %v, want ErrUserNotApproved", err)
	}

	if _, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.teacher); !IsPermissionError(err) {
		t.Errorf("teacher start error = %v, want permission error", err)
	}
}

func TestStartDeniedAcrossInstitutions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := models.Institution{Name: "Shelbyville High", Approved: true}
	if err := env.repo.Institution().Create(ctx, &other); err != nil {
		t.Fatalf("seed institution: %v", err)
	}
	outsider := models.Principal{ID: "student-9", Role: models.RoleStudent, InstitutionID: &other.ID, Approved: true}

	if _, err := env.services.Attempt().Start(ctx, env.quiz.ID, outsider); !IsPermissionError(err) {
		t.Errorf("cross-institution start error = %v, want permission error", err)
	}
}

func TestResultsDeniedAcrossInstitutions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := models.Institution{Name: "Shelbyville High", Approved: true}
	if err := env.repo.Institution().Create(ctx, &other); err != nil {
		t.Fatalf("seed institution: %v", err)
	}
	outsider := models.Principal{ID: "student-9", Role: models.RoleStudent, InstitutionID: &other.ID, Approved: true}

	// A foreign student is denied outright, not handed an empty list.
	if _, err := env.services.Attempt().Results(ctx, env.quiz.ID, models.ListAttemptsParams{}, outsider); !IsPermissionError(err) {
		t.Errorf("cross-institution results error = %v, want permission error", err)
	}
}

func TestSubmitOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	impostor := env.student
	impostor.ID = "student-2"
	_, err = env.services.Attempt().Submit(ctx, resp.ID,
		&models.SubmitAttemptRequest{Answers: map[string]string{env.questionKey(t, 0): "4"}}, impostor)
	if !IsPermissionError(err) {
		t.Errorf("impostor submit error = %v, want permission error", err)
	}
}

func TestResultsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	key0 := env.questionKey(t, 0)
	key1 := env.questionKey(t, 1)

	// Two students complete the quiz.
	instID := env.institution.ID
	for i, answers := range []map[string]string{
		{key0: "4", key1: "6"},
		{key0: "3", key1: "6"},
	} {
		student := models.Principal{
			ID:            "student-" + strconv.Itoa(i+1),
			Role:          models.RoleStudent,
			InstitutionID: &instID,
			Approved:      true,
		}
		resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, student)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if _, err := env.services.Attempt().Submit(ctx, resp.ID,
			&models.SubmitAttemptRequest{Answers: answers}, student); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	studentResults, err := env.services.Attempt().Results(ctx, env.quiz.ID, models.ListAttemptsParams{}, env.student)
	if err != nil {
		t.Fatalf("student results: %v", err)
	}
	if len(studentResults.Attempts) != 1 {
		t.Errorf("student sees %d attempts, want only their own 1", len(studentResults.Attempts))
	}
	if studentResults.Stats != nil {
		t.Error("students must not receive aggregate stats")
	}

	teacherResults, err := env.services.Attempt().Results(ctx, env.quiz.ID, models.ListAttemptsParams{}, env.teacher)
	if err != nil {
		t.Fatalf("teacher results: %v", err)
	}
	if len(teacherResults.Attempts) != 2 {
		t.Errorf("teacher sees %d attempts, want 2", len(teacherResults.Attempts))
	}
	if teacherResults.Stats == nil {
		t.Fatal("teacher should receive aggregate stats")
	}
	if teacherResults.Stats.TotalAttempts != 2 {
		t.Errorf("total attempts = %d, want 2", teacherResults.Stats.TotalAttempts)
	}
	if teacherResults.Stats.CompletionRate != 100 {
		t.Errorf("completion rate = %d, want 100", teacherResults.Stats.CompletionRate)
	}
}

func TestAttemptEventsPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.services.Attempt().Start(ctx, env.quiz.ID, env.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.services.Attempt().Submit(ctx, resp.ID,
		&models.SubmitAttemptRequest{Answers: map[string]string{env.questionKey(t, 0): "4"}}, env.student); err != nil {
		t.Fatalf("submit: %v", err)
	}

	published := env.publisher.GetPublishedEvents()
	var started, completed bool
	for _, e := range published {
		switch e.Type {
		case events.EventAttemptStarted:
			started = true
		case events.EventAttemptCompleted:
			completed = true
		}
	}
	if !started || !completed {
		t.Errorf("events published = %d (started=%v completed=%v), want both lifecycle events", len(published), started, completed)
	}
}

func TestZeroPointQuizGradesToZeroPercent(t *testing.T) {
	if got := scorePercentage(0, 0); got != 0 {
		t.Errorf("percentage = %d, want 0 for empty quiz", got)
	}
	if got := scorePercentage(2, 3); got != 67 {
		t.Errorf("percentage = %d, want 67 (round half up)", got)
	}
	if got := scorePercentage(1, 2); got != 50 {
		t.Errorf("percentage = %d, want 50", got)
	}
}
