package models

import "time"

// Group is a bounded collection of students sharing a collaboration context.
// Capacity is uniform and comes from configuration, not the row. ContactLink
// is managed by administrators and never touched by the placement engine.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	ContactLink string    `gorm:"size:500" json:"contact_link"`
	Members     []Student `gorm:"foreignKey:GroupID" json:"members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemberCount reports the number of loaded members.
func (g Group) MemberCount() int {
	return len(g.Members)
}
