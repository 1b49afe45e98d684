package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit outcomes. Denied records are only written when the rejected-attempt
// policy is enabled.
const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeDenied  = "denied"
)

// Actor role recorded when no authenticated user triggered the action.
const AuditActorSystem = "system"

// AuditRecord is an immutable entry in the append-only audit trail. Records
// are ordered by CreatedAt with ID as the insertion-sequence tie break.
// Nothing in this codebase updates or deletes rows of this table.
type AuditRecord struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    *uint             `json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Outcome    string            `gorm:"size:16;not null;default:success" json:"outcome"`
	Detail     datatypes.JSONMap `gorm:"type:json" json:"detail"`
	CreatedAt  time.Time         `json:"created_at"`
}
