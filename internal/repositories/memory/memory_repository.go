// Package memory provides a mutex-guarded in-memory Repository used by
// service tests and local development. It enforces the same attempt
// invariants as the postgres implementation: create-if-absent for active
// attempts and a first-writer-wins completing update.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

type Repository struct {
	mu sync.Mutex

	institutions map[uint]*models.Institution
	grades       map[uint]*models.Grade
	subjects     map[uint]*models.Subject
	quizzes      map[uint]*models.Quiz
	questions    map[uint]*models.Question
	attempts     map[uint]*models.QuizAttempt
	users        map[string]*models.User

	nextID uint
}

func NewRepository() *Repository {
	return &Repository{
		institutions: make(map[uint]*models.Institution),
		grades:       make(map[uint]*models.Grade),
		subjects:     make(map[uint]*models.Subject),
		quizzes:      make(map[uint]*models.Quiz),
		questions:    make(map[uint]*models.Question),
		attempts:     make(map[uint]*models.QuizAttempt),
		users:        make(map[string]*models.User),
		nextID:       0,
	}
}

func (r *Repository) allocID() uint {
	r.nextID++
	return r.nextID
}

func (r *Repository) Institution() repositories.InstitutionRepository { return (*institutionRepo)(r) }
func (r *Repository) Grade() repositories.GradeRepository             { return (*gradeRepo)(r) }
func (r *Repository) Subject() repositories.SubjectRepository         { return (*subjectRepo)(r) }
func (r *Repository) Quiz() repositories.QuizRepository               { return (*quizRepo)(r) }
func (r *Repository) Question() repositories.QuestionRepository       { return (*questionRepo)(r) }
func (r *Repository) Attempt() repositories.AttemptRepository         { return (*attemptRepo)(r) }
func (r *Repository) User() repositories.UserRepository               { return (*userRepo)(r) }

// WithTransaction runs fn against the same store. The store has no real
// transactions; each operation is individually atomic under the lock, which
// is enough for the service flows exercised in tests.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *Repository) Ping(ctx context.Context) error { return nil }
func (r *Repository) Close() error                   { return nil }

func notFound(what string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", what, id, repositories.ErrNotFound)
}

// ===== INSTITUTION =====

type institutionRepo Repository

func (r *institutionRepo) Create(ctx context.Context, institution *models.Institution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if institution.ID == 0 {
		institution.ID = (*Repository)(r).allocID()
	}
	institution.CreatedAt = time.Now()
	cp := *institution
	r.institutions[institution.ID] = &cp
	return nil
}

func (r *institutionRepo) GetByID(ctx context.Context, id uint) (*models.Institution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.institutions[id]
	if !ok {
		return nil, notFound("institution", id)
	}
	cp := *inst
	return &cp, nil
}

func (r *institutionRepo) List(ctx context.Context, filters repositories.InstitutionFilters) ([]*models.Institution, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Institution
	for _, inst := range r.institutions {
		if filters.Approved != nil && inst.Approved != *filters.Approved {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(inst.Name), strings.ToLower(filters.Search)) {
			continue
		}
		cp := *inst
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *institutionRepo) Update(ctx context.Context, institution *models.Institution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.institutions[institution.ID]; !ok {
		return notFound("institution", institution.ID)
	}
	cp := *institution
	r.institutions[institution.ID] = &cp
	return nil
}

func (r *institutionRepo) SetApproved(ctx context.Context, id uint, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.institutions[id]
	if !ok {
		return notFound("institution", id)
	}
	inst.Approved = approved
	return nil
}

func (r *institutionRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.institutions[id]; !ok {
		return notFound("institution", id)
	}
	delete(r.institutions, id)
	return nil
}

// ===== GRADE =====

type gradeRepo Repository

func (r *gradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if grade.ID == 0 {
		grade.ID = (*Repository)(r).allocID()
	}
	cp := *grade
	r.grades[grade.ID] = &cp
	return nil
}

func (r *gradeRepo) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grade, ok := r.grades[id]
	if !ok {
		return nil, notFound("grade", id)
	}
	cp := *grade
	return &cp, nil
}

func (r *gradeRepo) ListByInstitution(ctx context.Context, institutionID uint) ([]*models.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Grade
	for _, grade := range r.grades {
		if grade.InstitutionID == institutionID {
			cp := *grade
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== SUBJECT =====

type subjectRepo Repository

func (r *subjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subject.ID == 0 {
		subject.ID = (*Repository)(r).allocID()
	}
	cp := *subject
	r.subjects[subject.ID] = &cp
	return nil
}

func (r *subjectRepo) GetByID(ctx context.Context, id uint) (*models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subject, ok := r.subjects[id]
	if !ok {
		return nil, notFound("subject", id)
	}
	cp := *subject
	return &cp, nil
}

func (r *subjectRepo) GetByIDWithGrade(ctx context.Context, id uint) (*models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subject, ok := r.subjects[id]
	if !ok {
		return nil, notFound("subject", id)
	}
	cp := *subject
	if grade, ok := r.grades[subject.GradeID]; ok {
		cp.Grade = *grade
	}
	return &cp, nil
}

func (r *subjectRepo) ListByGrade(ctx context.Context, gradeID uint) ([]*models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Subject
	for _, subject := range r.subjects {
		if subject.GradeID == gradeID {
			cp := *subject
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== QUIZ =====

type quizRepo Repository

func (r *quizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if quiz.ID == 0 {
		quiz.ID = (*Repository)(r).allocID()
	}
	quiz.CreatedAt = time.Now()
	quiz.Settings.QuizID = quiz.ID

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.ID == 0 {
			q.ID = (*Repository)(r).allocID()
		}
		q.QuizID = quiz.ID
		cp := *q
		r.questions[q.ID] = &cp
	}

	cp := *quiz
	cp.Questions = nil
	r.quizzes[quiz.ID] = &cp
	return nil
}

func (r *quizRepo) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, notFound("quiz", id)
	}
	cp := *quiz
	return &cp, nil
}

func (r *quizRepo) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, notFound("quiz", id)
	}
	cp := *quiz
	cp.Questions = (*Repository)(r).questionsByQuizLocked(id)
	return &cp, nil
}

func (r *quizRepo) Update(ctx context.Context, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quiz.ID]; !ok {
		return notFound("quiz", quiz.ID)
	}
	cp := *quiz
	cp.Questions = nil
	r.quizzes[quiz.ID] = &cp
	return nil
}

func (r *quizRepo) UpdateSettings(ctx context.Context, settings *models.QuizSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[settings.QuizID]
	if !ok {
		return notFound("quiz", settings.QuizID)
	}
	quiz.Settings = *settings
	return nil
}

func (r *quizRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[id]; !ok {
		return notFound("quiz", id)
	}
	delete(r.quizzes, id)
	for qid, q := range r.questions {
		if q.QuizID == id {
			delete(r.questions, qid)
		}
	}
	return nil
}

func (r *quizRepo) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Quiz
	for _, quiz := range r.quizzes {
		if filters.SubjectID != nil && quiz.SubjectID != *filters.SubjectID {
			continue
		}
		if filters.InstitutionID != nil {
			if quiz.InstitutionID == nil || *quiz.InstitutionID != *filters.InstitutionID {
				continue
			}
		}
		if filters.CreatedBy != nil && quiz.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(quiz.Title), strings.ToLower(filters.Search)) {
			continue
		}
		cp := *quiz
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *quizRepo) ListBySubject(ctx context.Context, subjectID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.SubjectID = &subjectID
	return r.List(ctx, filters)
}

func (r *quizRepo) HasAttempts(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, attempt := range r.attempts {
		if attempt.QuizID == id {
			return true, nil
		}
	}
	return false, nil
}

// ===== QUESTION =====

type questionRepo Repository

func (r *questionRepo) Create(ctx context.Context, question *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if question.ID == 0 {
		question.ID = (*Repository)(r).allocID()
	}
	cp := *question
	r.questions[question.ID] = &cp
	return nil
}

func (r *questionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, question := range questions {
		if question.ID == 0 {
			question.ID = (*Repository)(r).allocID()
		}
		cp := *question
		r.questions[question.ID] = &cp
	}
	return nil
}

func (r *questionRepo) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question, ok := r.questions[id]
	if !ok {
		return nil, notFound("question", id)
	}
	cp := *question
	return &cp, nil
}

func (r *questionRepo) Update(ctx context.Context, question *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[question.ID]; !ok {
		return notFound("question", question.ID)
	}
	cp := *question
	r.questions[question.ID] = &cp
	return nil
}

func (r *questionRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return notFound("question", id)
	}
	delete(r.questions, id)
	return nil
}

func (r *questionRepo) GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	questions := (*Repository)(r).questionsByQuizLocked(quizID)
	out := make([]*models.Question, len(questions))
	for i := range questions {
		cp := questions[i]
		out[i] = &cp
	}
	return out, nil
}

func (r *Repository) questionsByQuizLocked(quizID uint) []models.Question {
	var out []models.Question
	for _, q := range r.questions {
		if q.QuizID == quizID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ===== ATTEMPT =====

type attemptRepo Repository

// Create enforces the one-active-attempt rule under the store lock, the
// in-memory equivalent of the partial unique index.
func (r *attemptRepo) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.attempts {
		if existing.QuizID == attempt.QuizID &&
			existing.StudentID == attempt.StudentID &&
			!existing.Completed {
			return fmt.Errorf("quiz %d student %s: %w",
				attempt.QuizID, attempt.StudentID, repositories.ErrDuplicateActiveAttempt)
		}
	}
	if attempt.ID == 0 {
		attempt.ID = (*Repository)(r).allocID()
	}
	attempt.CreatedAt = time.Now()
	cp := *attempt
	r.attempts[attempt.ID] = &cp
	return nil
}

func (r *attemptRepo) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, notFound("attempt", id)
	}
	cp := *attempt
	return &cp, nil
}

func (r *attemptRepo) GetByIDWithQuiz(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, notFound("attempt", id)
	}
	cp := *attempt
	if quiz, ok := r.quizzes[attempt.QuizID]; ok {
		quizCp := *quiz
		quizCp.Questions = (*Repository)(r).questionsByQuizLocked(quiz.ID)
		cp.Quiz = quizCp
	}
	return &cp, nil
}

func (r *attemptRepo) GetActiveAttempt(ctx context.Context, quizID uint, studentID string) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, attempt := range r.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID && !attempt.Completed {
			cp := *attempt
			return &cp, nil
		}
	}
	return nil, notFound("active attempt", quizID)
}

// CompleteAttempt is first-writer-wins: once Completed flips, later calls
// fail with ErrAttemptAlreadyCompleted and never touch the score.
func (r *attemptRepo) CompleteAttempt(ctx context.Context, id uint, completion repositories.AttemptCompletion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return notFound("attempt", id)
	}
	if attempt.Completed {
		return fmt.Errorf("attempt %d: %w", id, repositories.ErrAttemptAlreadyCompleted)
	}
	attempt.Answers = completion.Answers
	attempt.Score = completion.Score
	attempt.Completed = true
	submittedAt := completion.SubmittedAt
	attempt.SubmittedAt = &submittedAt
	timeSpent := completion.TimeSpentMinutes
	attempt.TimeSpentMinutes = &timeSpent
	return nil
}

func (r *attemptRepo) ListByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QuizAttempt
	for _, attempt := range r.attempts {
		if attempt.QuizID != quizID {
			continue
		}
		if !matchAttemptFilters(attempt, filters) {
			continue
		}
		cp := *attempt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *attemptRepo) ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QuizAttempt
	for _, attempt := range r.attempts {
		if attempt.StudentID != studentID {
			continue
		}
		if !matchAttemptFilters(attempt, filters) {
			continue
		}
		cp := *attempt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *attemptRepo) GetQuizAttemptStats(ctx context.Context, quizID uint) (*repositories.QuizAttemptStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.QuizAttemptStats{}
	var scoreSum, timeSum int
	for _, attempt := range r.attempts {
		if attempt.QuizID != quizID {
			continue
		}
		stats.TotalAttempts++
		if attempt.Completed {
			stats.CompletedAttempts++
			scoreSum += attempt.Score
			if attempt.TimeSpentMinutes != nil {
				timeSum += *attempt.TimeSpentMinutes
			}
		}
	}
	if stats.CompletedAttempts > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.CompletedAttempts)
		stats.AverageTimeSpent = timeSum / stats.CompletedAttempts
	}
	return stats, nil
}

func matchAttemptFilters(attempt *models.QuizAttempt, filters repositories.AttemptFilters) bool {
	if filters.Completed != nil && attempt.Completed != *filters.Completed {
		return false
	}
	if filters.StudentID != nil && attempt.StudentID != *filters.StudentID {
		return false
	}
	return true
}

// ===== USER =====

type userRepo Repository

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	cp := *user
	return &cp, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, notFound("user", email)
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return notFound("user", user.ID)
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *userRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, user := range r.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.InstitutionID != nil {
			if user.InstitutionID == nil || *user.InstitutionID != *filters.InstitutionID {
				continue
			}
		}
		if filters.Approved != nil && user.Approved != *filters.Approved {
			continue
		}
		if filters.Search != "" {
			needle := strings.ToLower(filters.Search)
			if !strings.Contains(strings.ToLower(user.FullName), needle) &&
				!strings.Contains(strings.ToLower(user.Email), needle) {
				continue
			}
		}
		cp := *user
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *userRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
