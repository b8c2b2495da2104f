package repositories

import "context"

// Repository aggregates all per-entity repositories. Implementations exist
// for postgres (production) and memory (tests, local development).
type Repository interface {
	// Tenancy domain
	Institution() InstitutionRepository
	Grade() GradeRepository
	Subject() SubjectRepository

	// Quiz domain
	Quiz() QuizRepository
	Question() QuestionRepository

	// Attempt domain
	Attempt() AttemptRepository

	// User domain
	User() UserRepository

	// Transaction support: fn runs with a Repository bound to one
	// transaction; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
