package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/grouping"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

const rosterCacheKey = "grouper:groups:roster"

// GroupService exposes the read side of the roster plus the contact-link
// update, which is independent of membership. It also implements
// RosterCache so the assignment service can drop the cached roster after
// every committed mutation.
type GroupService interface {
	RosterCache
	ListGroups(ctx context.Context) ([]dto.GroupResponse, error)
	GetGroup(ctx context.Context, id uint) (dto.GroupResponse, error)
	SharedUnits(ctx context.Context, groupID uint) (dto.SharedUnitsResponse, error)
	UpdateContactLink(ctx context.Context, id uint, payload dto.ContactLinkUpdateRequest, actor Actor) (dto.GroupResponse, error)
}

type groupService struct {
	repo      repository.GroupRepository
	audit     AuditService
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGroupService constructs the roster read service. cache may be nil.
func NewGroupService(repo repository.GroupRepository, audit AuditService, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) GroupService {
	return &groupService{
		repo:      repo,
		audit:     audit,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger.With().Str("component", "group_service").Logger(),
	}
}

func (s *groupService) ListGroups(ctx context.Context) ([]dto.GroupResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, rosterCacheKey).Result(); err == nil {
			var response []dto.GroupResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Msg("roster cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read roster cache")
		}
	}

	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]dto.GroupResponse, 0, len(groups))
	for _, group := range groups {
		response = append(response, dto.NewGroupResponse(group))
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, rosterCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store roster cache")
			}
		}
	}
	return response, nil
}

func (s *groupService) GetGroup(ctx context.Context, id uint) (dto.GroupResponse, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}
	return dto.NewGroupResponse(group), nil
}

// SharedUnits reuses the engine's intersection-of-all-members computation so
// the display can never drift from what placement scoring optimises for.
func (s *groupService) SharedUnits(ctx context.Context, groupID uint) (dto.SharedUnitsResponse, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SharedUnitsResponse{}, ErrGroupNotFound
		}
		return dto.SharedUnitsResponse{}, err
	}

	shared := grouping.SharedUnits(group.Members)
	units := make([]dto.UnitResponse, 0, len(shared))
	for _, unit := range shared {
		units = append(units, dto.NewUnitResponse(unit))
	}
	return dto.SharedUnitsResponse{GroupID: group.ID, Units: units}, nil
}

func (s *groupService) UpdateContactLink(ctx context.Context, id uint, payload dto.ContactLinkUpdateRequest, actor Actor) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.repo.UpdateContactLink(ctx, id, strings.TrimSpace(payload.ContactLink))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "admin.update_contact_link",
		EntityType: "group",
		EntityID:   &group.ID,
		Detail: map[string]interface{}{
			"group_name": group.Name,
		},
	}); err != nil {
		s.logger.Warn().Err(err).Uint("group_id", group.ID).Msg("failed to audit contact link update")
	}

	s.Invalidate(ctx)
	return dto.NewGroupResponse(group), nil
}

// Invalidate drops the cached roster. Safe to call with no cache configured.
func (s *groupService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, rosterCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate roster cache")
	}
}
