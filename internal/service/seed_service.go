package service

import (
	"context"
	"crypto/subtle"

	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

// SeedService loads the canonical course/unit catalog. It is disabled unless
// configuration enables it and guarded by a shared token.
type SeedService interface {
	SeedCatalog(ctx context.Context, token string) (int64, error)
}

type seedService struct {
	catalog repository.CatalogRepository
	enabled bool
	token   string
	logger  zerolog.Logger
}

// NewSeedService constructs the seeding service.
func NewSeedService(catalog repository.CatalogRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		catalog: catalog,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedCatalog(ctx context.Context, token string) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if s.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return 0, ErrSeedUnauthorized
	}

	affected, err := s.catalog.SeedCourses(ctx, catalogUnits(), catalogCourses())
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("catalog seeded")
	return affected, nil
}

// catalogUnits returns the canonical first-year unit catalog.
func catalogUnits() []models.Unit {
	return []models.Unit{
		{Code: "CSF 123", Name: "Physics for Computer Systems and Digital Forensics"},
		{Code: "CSF 101", Name: "Intro to Digital Markets Infrastructure"},
		{Code: "CSC 101", Name: "Introduction to Computing Systems"},
		{Code: "MAT 101", Name: "Foundation of Mathematics"},
		{Code: "BEB 105", Name: "IT Entrepreneurship"},
		{Code: "SST 111", Name: "Basic Statistics with R"},
		{Code: "BEB 107", Name: "Entrepreneurial Environment"},
		{Code: "ECO 101", Name: "Introduction to Microeconomics"},
		{Code: "CMT 101", Name: "Sound and Video Production"},
		{Code: "LDT 101", Name: "Educational Theory and Pedagogy"},
		{Code: "BCT 101", Name: "Building and Civil Engineering Practice 1"},
		{Code: "MAT 103", Name: "Calculus I"},
		{Code: "TED 101", Name: "Introduction to Technology Education"},
		{Code: "TED 103", Name: "Basic Engineering Science"},
	}
}

// catalogCourses returns the degree programmes with their unit associations,
// matched to units by code at seeding time.
func catalogCourses() []models.Course {
	byCodes := func(codes ...string) []models.Unit {
		units := make([]models.Unit, 0, len(codes))
		for _, code := range codes {
			units = append(units, models.Unit{Code: code})
		}
		return units
	}

	return []models.Course{
		{Name: "Bachelor of Agritechnology and Food Systems", Units: byCodes("MAT 101", "SST 111")},
		{Name: "Bachelor of Business and Entrepreneurship", Units: byCodes("BEB 105", "BEB 107", "ECO 101")},
		{Name: "Bachelor of Commerce", Units: byCodes("BEB 105", "BEB 107", "ECO 101", "SST 111")},
		{Name: "Bachelor of Data Science", Units: byCodes("MAT 101", "MAT 103", "SST 111", "CSC 101")},
		{Name: "Bachelor of Economics and Data Science", Units: byCodes("ECO 101", "SST 111", "MAT 101", "MAT 103")},
		{Name: "Bachelor of Economics and Statistics", Units: byCodes("ECO 101", "SST 111", "MAT 101")},
		{Name: "Bachelor of Science in Computer Science", Units: byCodes("CSC 101", "MAT 101", "MAT 103", "BEB 105")},
		{Name: "Bachelor of Science in Cyber Security and Digital Forensics", Units: byCodes("CSF 123", "CSF 101", "MAT 101", "CSC 101")},
		{Name: "Bachelor of Science in Interactive Media Technologies", Units: byCodes("CMT 101", "BEB 105")},
		{Name: "Bachelor of Science in Mathematics and Computing", Units: byCodes("MAT 101", "MAT 103", "CSC 101")},
		{Name: "Bachelor of Technology Education (BCT)", Units: byCodes("BCT 101", "TED 101", "TED 103")},
		{Name: "Bachelor of Technology Education (CIT)", Units: byCodes("CSC 101", "TED 101", "TED 103")},
		{Name: "Bachelor of Technology Education (EET)", Units: byCodes("TED 101", "TED 103")},
		{Name: "Bachelor of Technology Education (MTT)", Units: byCodes("MAT 101", "TED 101", "TED 103")},
		{Name: "Bachelor of Technology Education (PMT)", Units: byCodes("TED 101", "TED 103")},
	}
}
