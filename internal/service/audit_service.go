package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

// Actor identifies the authenticated caller of a mutating operation.
// A zero Actor is recorded as the system.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(a.Role), models.RoleAdmin)
}

// AuditEntry carries everything needed to build one audit record.
type AuditEntry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uint
	Outcome    string
	Detail     map[string]interface{}
}

// AuditService builds, persists and pages through audit records. Successful
// membership mutations do not call Record directly: the assignment service
// composes the record here and hands it to the group store so it commits in
// the same transaction as the mutation.
type AuditService interface {
	Compose(entry AuditEntry) (models.AuditRecord, error)
	Record(ctx context.Context, entry AuditEntry) (models.AuditRecord, error)
	List(ctx context.Context, page, pageSize int) (dto.AuditLogResponse, error)
}

type auditService struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Compose(entry AuditEntry) (models.AuditRecord, error) {
	action := strings.ToLower(strings.TrimSpace(entry.Action))
	if action == "" {
		return models.AuditRecord{}, fmt.Errorf("audit action is required")
	}
	entityType := strings.ToLower(strings.TrimSpace(entry.EntityType))
	if entityType == "" {
		return models.AuditRecord{}, fmt.Errorf("audit entity type is required")
	}

	outcome := entry.Outcome
	if outcome == "" {
		outcome = models.AuditOutcomeSuccess
	}

	record := models.AuditRecord{
		ActorRole:  models.AuditActorSystem,
		Action:     action,
		EntityType: entityType,
		EntityID:   entry.EntityID,
		Outcome:    outcome,
		Detail:     sanitizeDetail(entry.Detail),
	}
	if entry.Actor.ID != 0 {
		actorID := entry.Actor.ID
		record.ActorID = &actorID
		if role := strings.ToLower(strings.TrimSpace(entry.Actor.Role)); role != "" {
			record.ActorRole = role
		}
	}
	return record, nil
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) (models.AuditRecord, error) {
	record, err := s.Compose(entry)
	if err != nil {
		return models.AuditRecord{}, err
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		s.logger.Error().Err(err).Str("action", record.Action).Msg("failed to persist audit record")
		return models.AuditRecord{}, err
	}
	return record, nil
}

func (s *auditService) List(ctx context.Context, page, pageSize int) (dto.AuditLogResponse, error) {
	records, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return dto.AuditLogResponse{}, err
	}

	entries := make([]dto.AuditRecordResponse, 0, len(records))
	for _, record := range records {
		entries = append(entries, dto.NewAuditRecordResponse(record))
	}

	pages := 1
	if pageSize > 0 {
		pages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	if page <= 0 {
		page = 1
	}

	return dto.AuditLogResponse{Entries: entries, Total: total, Pages: pages, Page: page}, nil
}

// sanitizeDetail masks values whose keys look credential-like before they
// reach the trail.
func sanitizeDetail(detail map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range detail {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
