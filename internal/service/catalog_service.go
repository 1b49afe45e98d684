package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

// CatalogService reads the static course/unit reference data.
type CatalogService interface {
	Courses(ctx context.Context) ([]dto.CourseResponse, error)
	Units(ctx context.Context, courseID *uint) ([]dto.UnitResponse, error)
}

type catalogService struct {
	repo   repository.CatalogRepository
	logger zerolog.Logger
}

// NewCatalogService constructs the catalog read service.
func NewCatalogService(repo repository.CatalogRepository, logger zerolog.Logger) CatalogService {
	return &catalogService{
		repo:   repo,
		logger: logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) Courses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		response = append(response, dto.NewCourseResponse(course))
	}
	return response, nil
}

func (s *catalogService) Units(ctx context.Context, courseID *uint) ([]dto.UnitResponse, error) {
	var list []models.Unit
	var err error
	if courseID != nil {
		list, err = s.repo.ListUnitsForCourse(ctx, *courseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCourse
		}
	} else {
		list, err = s.repo.ListUnits(ctx)
	}
	if err != nil {
		return nil, err
	}

	units := make([]dto.UnitResponse, 0, len(list))
	for _, unit := range list {
		units = append(units, dto.NewUnitResponse(unit))
	}
	return units, nil
}
