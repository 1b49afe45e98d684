package grouping

import "github.com/ouk-labs/grouper-api/internal/models"

// CapacityGuard enforces the hard members-per-group ceiling. The capacity is
// read once at construction and fixed for the engine's lifetime.
//
// A positive HasFreeSlot answer is only actionable inside the store's
// critical section: the assignment service re-checks the member count in the
// same transaction that inserts the membership row, so two callers can never
// both redeem the last slot.
type CapacityGuard struct {
	capacity int
}

// NewCapacityGuard builds a guard for the given capacity.
func NewCapacityGuard(capacity int) CapacityGuard {
	if capacity < 1 {
		capacity = 1
	}
	return CapacityGuard{capacity: capacity}
}

// Capacity returns the configured members-per-group ceiling.
func (g CapacityGuard) Capacity() int {
	return g.capacity
}

// HasFreeSlot reports whether the group can take one more member.
func (g CapacityGuard) HasFreeSlot(group models.Group) bool {
	return group.MemberCount() < g.capacity
}
