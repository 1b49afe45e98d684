package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// StudentRepository provides read access to student records. Membership
// mutations go through GroupRepository only.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByNumber(ctx context.Context, studentNumber string) (models.Student, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	NumberExists(ctx context.Context, studentNumber string) (bool, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("Course").
		First(&student, id).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByNumber(ctx context.Context, studentNumber string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("Course").
		Where("student_number = ?", studentNumber).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) NumberExists(ctx context.Context, studentNumber string) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("student_number = ?", studentNumber).
		Count(&total).Error
	if err != nil {
		return false, err
	}
	return total > 0, nil
}
