package dto

import (
	"time"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// GroupResponse serializes a group with its members.
type GroupResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	ContactLink string            `json:"contact_link"`
	Members     []StudentResponse `json:"members"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SwitchGroupRequest is the payload of a student-initiated group switch.
type SwitchGroupRequest struct {
	GroupID uint `json:"group_id" validate:"required,gt=0"`
}

// MoveStudentRequest is the payload of an administrator-initiated move.
type MoveStudentRequest struct {
	GroupID uint `json:"group_id" validate:"required,gt=0"`
}

// ContactLinkUpdateRequest patches a group's contact link.
type ContactLinkUpdateRequest struct {
	ContactLink string `json:"contact_link" validate:"omitempty,url,max=500"`
}

// SharedUnitsResponse lists the units common to every member of a group.
type SharedUnitsResponse struct {
	GroupID uint           `json:"group_id"`
	Units   []UnitResponse `json:"units"`
}

// EngineConfigResponse exposes the placement limits to clients.
type EngineConfigResponse struct {
	MaxMembers int `json:"max_members"`
	MaxGroups  int `json:"max_groups"`
}

// NewGroupResponse converts a group model into a DTO.
func NewGroupResponse(group models.Group) GroupResponse {
	members := make([]StudentResponse, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, NewStudentResponse(member))
	}

	return GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		ContactLink: group.ContactLink,
		Members:     members,
		CreatedAt:   group.CreatedAt,
	}
}
