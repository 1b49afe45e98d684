package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/grouping"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/observability"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

// Audit actions emitted by the assignment service.
const (
	ActionAutoAssign  = "student.auto_assign"
	ActionSwitchGroup = "student.switch_group"
	ActionMoveStudent = "admin.move_student"
)

// RosterCache is notified after every committed membership change so read
// caches can drop stale group rosters.
type RosterCache interface {
	Invalidate(ctx context.Context)
}

// AssignmentConfig fixes the engine's policy knobs for its lifetime.
type AssignmentConfig struct {
	// MaxMembers is the hard capacity of every group.
	MaxMembers int
	// MaxGroups caps group creation; zero means unlimited.
	MaxGroups int
	// CourseScoped restricts auto-assignment to groups that already contain
	// a member of the student's course (empty groups always qualify).
	CourseScoped bool
	// AuditRejected writes a denied audit record for rejected switch/move
	// attempts instead of recording nothing.
	AuditRejected bool
	// StudentEmailDomain is the required suffix of registration emails.
	StudentEmailDomain string
}

// AssignmentService is the engine's mutating surface: auto-assignment at
// registration, student-initiated switches and administrator moves. All
// three serialise on a store-wide critical section; the membership write and
// its audit record commit in one transaction inside the group store.
type AssignmentService interface {
	AutoAssign(ctx context.Context, payload dto.RegisterStudentRequest, actor Actor) (dto.PlacementResponse, error)
	SwitchGroup(ctx context.Context, actor Actor, studentID, targetGroupID uint) (dto.PlacementResponse, error)
	MoveStudent(ctx context.Context, actor Actor, studentID, targetGroupID uint) (dto.PlacementResponse, error)
}

type assignmentService struct {
	groups    repository.GroupRepository
	students  repository.StudentRepository
	catalog   repository.CatalogRepository
	audit     AuditService
	events    EventPublisher
	cache     RosterCache
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	guard     grouping.CapacityGuard
	cfg       AssignmentConfig
	logger    zerolog.Logger

	// mu serialises every membership mutation. The capacity read and the
	// membership write must be indivisible per group; a store-wide section
	// satisfies that without per-group bookkeeping.
	mu sync.Mutex
}

// NewAssignmentService constructs the engine. events and cache may be nil.
func NewAssignmentService(
	groups repository.GroupRepository,
	students repository.StudentRepository,
	catalog repository.CatalogRepository,
	audit AuditService,
	events EventPublisher,
	cache RosterCache,
	validate *validator.Validate,
	cfg AssignmentConfig,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		groups:    groups,
		students:  students,
		catalog:   catalog,
		audit:     audit,
		events:    events,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		guard:     grouping.NewCapacityGuard(cfg.MaxMembers),
		cfg:       cfg,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) AutoAssign(ctx context.Context, payload dto.RegisterStudentRequest, actor Actor) (dto.PlacementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PlacementResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.PlacementResponse{}, ErrInvalidStudentName
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if s.cfg.StudentEmailDomain != "" && !strings.HasSuffix(email, "@"+s.cfg.StudentEmailDomain) {
		return dto.PlacementResponse{}, ErrEmailDomain
	}

	course, err := s.catalog.GetCourse(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlacementResponse{}, ErrInvalidCourse
		}
		return dto.PlacementResponse{}, err
	}

	units, err := s.catalog.GetUnitsByIDs(ctx, dedupeIDs(payload.UnitIDs))
	if err != nil {
		return dto.PlacementResponse{}, err
	}
	if len(units) != len(dedupeIDs(payload.UnitIDs)) {
		return dto.PlacementResponse{}, ErrInvalidUnits
	}

	taken, err := s.students.NumberExists(ctx, strings.TrimSpace(payload.StudentNumber))
	if err != nil {
		return dto.PlacementResponse{}, err
	}
	if taken {
		return dto.PlacementResponse{}, ErrDuplicateStudent
	}

	student := models.Student{
		Name:          name,
		StudentNumber: strings.TrimSpace(payload.StudentNumber),
		Gender:        payload.Gender,
		Email:         email,
		Phone:         strings.TrimSpace(payload.Phone),
		CourseID:      course.ID,
		Units:         units,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.groups.List(ctx)
	if err != nil {
		return dto.PlacementResponse{}, err
	}
	candidates := groups
	if s.cfg.CourseScoped {
		candidates = filterByCourse(groups, course.ID)
	}

	target := grouping.SelectGroup(student, candidates, s.guard)
	createGroup := target == nil
	if createGroup {
		if s.cfg.MaxGroups > 0 && len(groups) >= s.cfg.MaxGroups {
			return dto.PlacementResponse{}, ErrRegistrationClosed
		}
		target = &models.Group{Name: fmt.Sprintf("Group %d", len(groups)+1)}
	}

	record, err := s.audit.Compose(AuditEntry{
		Actor:      actor,
		Action:     ActionAutoAssign,
		EntityType: "student",
		Detail: map[string]interface{}{
			"student_name":  student.Name,
			"group_name":    target.Name,
			"created_group": createGroup,
		},
	})
	if err != nil {
		return dto.PlacementResponse{}, err
	}

	if err := s.groups.PlaceNew(ctx, &student, target, createGroup, s.guard.Capacity(), &record); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return dto.PlacementResponse{}, ErrGroupFull
		}
		return dto.PlacementResponse{}, err
	}

	s.logger.Info().
		Uint("student_id", student.ID).
		Uint("group_id", target.ID).
		Bool("created_group", createGroup).
		Msg("student auto-assigned")

	if createGroup {
		observability.GroupsCreated().Inc()
	}

	s.afterCommit(ctx, MembershipEvent{
		Action:    ActionAutoAssign,
		StudentID: student.ID,
		GroupID:   target.ID,
		GroupName: target.Name,
	})

	return s.placement(ctx, student.ID, target.ID)
}

func (s *assignmentService) SwitchGroup(ctx context.Context, actor Actor, studentID, targetGroupID uint) (dto.PlacementResponse, error) {
	return s.relocate(ctx, actor, studentID, targetGroupID, ActionSwitchGroup)
}

func (s *assignmentService) MoveStudent(ctx context.Context, actor Actor, studentID, targetGroupID uint) (dto.PlacementResponse, error) {
	if !actor.IsAdmin() {
		return dto.PlacementResponse{}, ErrNotAdmin
	}
	return s.relocate(ctx, actor, studentID, targetGroupID, ActionMoveStudent)
}

// relocate validates in the order the contract fixes: target exists, target
// differs from the current group, target has a free slot. The first failure
// short-circuits; rejected attempts mutate nothing.
func (s *assignmentService) relocate(ctx context.Context, actor Actor, studentID, targetGroupID uint, action string) (dto.PlacementResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlacementResponse{}, ErrStudentNotFound
		}
		return dto.PlacementResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.groups.GetByID(ctx, targetGroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlacementResponse{}, s.reject(ctx, actor, action, student, targetGroupID, "target group not found", ErrGroupNotFound)
		}
		return dto.PlacementResponse{}, err
	}

	if student.GroupID == nil {
		return dto.PlacementResponse{}, s.reject(ctx, actor, action, student, targetGroupID, "student unassigned", ErrUnassigned)
	}
	fromID := *student.GroupID
	if fromID == target.ID {
		return dto.PlacementResponse{}, s.reject(ctx, actor, action, student, targetGroupID, "no-op relocation", ErrSameGroup)
	}
	if !s.guard.HasFreeSlot(target) {
		return dto.PlacementResponse{}, s.reject(ctx, actor, action, student, targetGroupID, "target group full", ErrGroupFull)
	}

	record, err := s.audit.Compose(AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "student",
		EntityID:   &student.ID,
		Detail: map[string]interface{}{
			"student_name":  student.Name,
			"from_group_id": fromID,
			"to_group_id":   target.ID,
			"to_group_name": target.Name,
		},
	})
	if err != nil {
		return dto.PlacementResponse{}, err
	}

	if err := s.groups.Relocate(ctx, student.ID, fromID, target.ID, s.guard.Capacity(), &record); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			return dto.PlacementResponse{}, ErrGroupFull
		case errors.Is(err, repository.ErrNotAMember):
			return dto.PlacementResponse{}, ErrStudentNotFound
		}
		return dto.PlacementResponse{}, err
	}

	s.logger.Info().
		Uint("student_id", student.ID).
		Uint("from_group_id", fromID).
		Uint("to_group_id", target.ID).
		Str("action", action).
		Msg("student relocated")

	s.afterCommit(ctx, MembershipEvent{
		Action:      action,
		StudentID:   student.ID,
		FromGroupID: &fromID,
		GroupID:     target.ID,
		GroupName:   target.Name,
	})

	return s.placement(ctx, student.ID, target.ID)
}

// reject implements the rejected-attempt audit policy: either no record at
// all, or exactly one explicitly denied record. The original error is always
// returned unchanged.
func (s *assignmentService) reject(ctx context.Context, actor Actor, action string, student models.Student, targetGroupID uint, reason string, cause error) error {
	observability.PlacementRejects().WithLabelValues(action, reason).Inc()

	if !s.cfg.AuditRejected {
		return cause
	}

	_, err := s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "student",
		EntityID:   &student.ID,
		Outcome:    models.AuditOutcomeDenied,
		Detail: map[string]interface{}{
			"student_name":    student.Name,
			"target_group_id": targetGroupID,
			"reason":          reason,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record denied attempt")
	}
	return cause
}

func (s *assignmentService) afterCommit(ctx context.Context, event MembershipEvent) {
	observability.Placements().WithLabelValues(event.Action).Inc()
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.events != nil {
		s.events.PublishMembershipChange(event)
	}
}

func (s *assignmentService) placement(ctx context.Context, studentID, groupID uint) (dto.PlacementResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.PlacementResponse{}, err
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return dto.PlacementResponse{}, err
	}
	return dto.PlacementResponse{
		Student: dto.NewStudentResponse(student),
		Group:   dto.NewGroupResponse(group),
	}, nil
}

// filterByCourse keeps groups that are empty or already contain a member of
// the course.
func filterByCourse(groups []models.Group, courseID uint) []models.Group {
	filtered := make([]models.Group, 0, len(groups))
	for _, group := range groups {
		if len(group.Members) == 0 {
			filtered = append(filtered, group)
			continue
		}
		for _, member := range group.Members {
			if member.CourseID == courseID {
				filtered = append(filtered, group)
				break
			}
		}
	}
	return filtered
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
