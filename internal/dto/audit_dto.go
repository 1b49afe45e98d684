package dto

import (
	"time"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// AuditRecordResponse serializes a single audit trail entry.
type AuditRecordResponse struct {
	ID         uint                   `json:"id"`
	ActorID    *uint                  `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Outcome    string                 `json:"outcome"`
	Detail     map[string]interface{} `json:"detail"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditLogResponse is the paginated, newest-first audit trail view.
type AuditLogResponse struct {
	Entries []AuditRecordResponse `json:"entries"`
	Total   int64                 `json:"total"`
	Pages   int                   `json:"pages"`
	Page    int                   `json:"page"`
}

// NewAuditRecordResponse converts an audit record into a DTO.
func NewAuditRecordResponse(record models.AuditRecord) AuditRecordResponse {
	detail := map[string]interface{}{}
	for key, value := range record.Detail {
		detail[key] = value
	}

	return AuditRecordResponse{
		ID:         record.ID,
		ActorID:    record.ActorID,
		ActorRole:  record.ActorRole,
		Action:     record.Action,
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		Outcome:    record.Outcome,
		Detail:     detail,
		CreatedAt:  record.CreatedAt,
	}
}
