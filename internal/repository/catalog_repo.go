package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// CatalogRepository reads the static course/unit reference data and supports
// the guarded seeding path.
type CatalogRepository interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id uint) (models.Course, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
	ListUnitsForCourse(ctx context.Context, courseID uint) ([]models.Unit, error)
	GetUnitsByIDs(ctx context.Context, ids []uint) ([]models.Unit, error)
	// SeedCourses upserts courses with their unit associations; existing
	// rows are matched by name/code so seeding stays idempotent.
	SeedCourses(ctx context.Context, units []models.Unit, courses []models.Course) (int64, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository constructs the catalog repository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *catalogRepository) GetCourse(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Units").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *catalogRepository) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *catalogRepository) ListUnitsForCourse(ctx context.Context, courseID uint) ([]models.Unit, error) {
	course, err := r.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return course.Units, nil
}

func (r *catalogRepository) GetUnitsByIDs(ctx context.Context, ids []uint) ([]models.Unit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var units []models.Unit
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *catalogRepository) SeedCourses(ctx context.Context, units []models.Unit, courses []models.Course) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byCode := make(map[string]models.Unit, len(units))
		for _, unit := range units {
			var existing models.Unit
			err := tx.Where("code = ?", unit.Code).First(&existing).Error
			switch {
			case err == nil:
				byCode[unit.Code] = existing
			case errors.Is(err, gorm.ErrRecordNotFound):
				created := models.Unit{Code: unit.Code, Name: unit.Name}
				if err := tx.Create(&created).Error; err != nil {
					return err
				}
				byCode[unit.Code] = created
				affected++
			default:
				return err
			}
		}

		for _, course := range courses {
			var existing models.Course
			err := tx.Where("name = ?", course.Name).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				existing = models.Course{Name: course.Name}
				if err := tx.Create(&existing).Error; err != nil {
					return err
				}
				affected++
			} else if err != nil {
				return err
			}

			linked := make([]models.Unit, 0, len(course.Units))
			for _, unit := range course.Units {
				if resolved, ok := byCode[unit.Code]; ok {
					linked = append(linked, resolved)
				}
			}
			if err := tx.Model(&existing).Association("Units").Replace(linked); err != nil {
				return err
			}
		}
		return nil
	})
	return affected, err
}
