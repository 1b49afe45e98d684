package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

// StudentService reads student placements. Registration itself lives in the
// assignment service because it mutates group membership.
type StudentService interface {
	Lookup(ctx context.Context, studentNumber string) (dto.PlacementResponse, error)
	PublicLookup(ctx context.Context, studentNumber string) (dto.PublicLookupResponse, error)
}

type studentService struct {
	students repository.StudentRepository
	groups   repository.GroupRepository
	logger   zerolog.Logger
}

// NewStudentService constructs the placement read service.
func NewStudentService(students repository.StudentRepository, groups repository.GroupRepository, logger zerolog.Logger) StudentService {
	return &studentService{
		students: students,
		groups:   groups,
		logger:   logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Lookup(ctx context.Context, studentNumber string) (dto.PlacementResponse, error) {
	student, err := s.students.GetByNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlacementResponse{}, ErrStudentNotFound
		}
		return dto.PlacementResponse{}, err
	}

	response := dto.PlacementResponse{Student: dto.NewStudentResponse(student)}
	if student.GroupID != nil {
		group, err := s.groups.GetByID(ctx, *student.GroupID)
		if err != nil {
			return dto.PlacementResponse{}, err
		}
		response.Group = dto.NewGroupResponse(group)
	}
	return response, nil
}

// PublicLookup returns the reduced view safe to show without a session: the
// student's own card plus the names of their group mates.
func (s *studentService) PublicLookup(ctx context.Context, studentNumber string) (dto.PublicLookupResponse, error) {
	student, err := s.students.GetByNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PublicLookupResponse{}, ErrStudentNotFound
		}
		return dto.PublicLookupResponse{}, err
	}

	response := dto.PublicLookupResponse{
		Student: dto.NewPublicMemberResponse(student),
	}
	if student.GroupID == nil {
		return response, nil
	}

	group, err := s.groups.GetByID(ctx, *student.GroupID)
	if err != nil {
		return dto.PublicLookupResponse{}, err
	}

	response.GroupID = &group.ID
	response.GroupName = group.Name
	response.ContactLink = group.ContactLink
	members := make([]dto.PublicMemberResponse, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, dto.NewPublicMemberResponse(member))
	}
	response.Members = members
	return response, nil
}
