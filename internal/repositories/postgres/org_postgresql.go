package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
)

// ===== INSTITUTION =====

type InstitutionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewInstitutionPostgreSQL(db *gorm.DB) repositories.InstitutionRepository {
	return &InstitutionPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *InstitutionPostgreSQL) Create(ctx context.Context, institution *models.Institution) error {
	return r.db.WithContext(ctx).Create(institution).Error
}

func (r *InstitutionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Institution, error) {
	var institution models.Institution
	if err := r.db.WithContext(ctx).First(&institution, id).Error; err != nil {
		return nil, err
	}
	return &institution, nil
}

func (r *InstitutionPostgreSQL) List(ctx context.Context, filters repositories.InstitutionFilters) ([]*models.Institution, int64, error) {
	var institutions []*models.Institution
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Institution{})
	if filters.Approved != nil {
		query = query.Where("approved = ?", *filters.Approved)
	}
	if filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&institutions).Error; err != nil {
		return nil, 0, err
	}

	return institutions, total, nil
}

func (r *InstitutionPostgreSQL) Update(ctx context.Context, institution *models.Institution) error {
	return r.db.WithContext(ctx).Save(institution).Error
}

func (r *InstitutionPostgreSQL) SetApproved(ctx context.Context, id uint, approved bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Institution{}).
		Where("id = ?", id).
		Update("approved", approved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("institution %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (r *InstitutionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Institution{}, id).Error
}

// ===== GRADE =====

type GradePostgreSQL struct {
	db *gorm.DB
}

func NewGradePostgreSQL(db *gorm.DB) repositories.GradeRepository {
	return &GradePostgreSQL{db: db}
}

func (r *GradePostgreSQL) Create(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Create(grade).Error
}

func (r *GradePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).First(&grade, id).Error; err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *GradePostgreSQL) ListByInstitution(ctx context.Context, institutionID uint) ([]*models.Grade, error) {
	var grades []*models.Grade
	if err := r.db.WithContext(ctx).
		Where("institution_id = ?", institutionID).
		Order("name ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

// ===== SUBJECT =====

type SubjectPostgreSQL struct {
	db *gorm.DB
}

func NewSubjectPostgreSQL(db *gorm.DB) repositories.SubjectRepository {
	return &SubjectPostgreSQL{db: db}
}

func (r *SubjectPostgreSQL) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *SubjectPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *SubjectPostgreSQL) GetByIDWithGrade(ctx context.Context, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).
		Preload("Grade").
		First(&subject, id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *SubjectPostgreSQL) ListByGrade(ctx context.Context, gradeID uint) ([]*models.Subject, error) {
	var subjects []*models.Subject
	if err := r.db.WithContext(ctx).
		Where("grade_id = ?", gradeID).
		Order("name ASC").
		Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}
