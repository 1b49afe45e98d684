// Package grouping holds the pure placement logic of the group assignment
// engine: shared-unit computation, capacity checks and the deterministic
// ranking used to pick a target group. Nothing in this package touches
// storage; callers are responsible for serialising mutations.
package grouping

import "github.com/ouk-labs/grouper-api/internal/models"

// SharedUnits returns the units common to every member of the group, in the
// unit order of the first member. An empty group shares nothing.
//
// This is the same computation the member-facing "shared units" panel shows,
// and the one OverlapScore ranks candidates by. Keep it single-sourced.
func SharedUnits(members []models.Student) []models.Unit {
	if len(members) == 0 {
		return nil
	}

	counts := make(map[uint]int)
	for _, member := range members {
		seen := make(map[uint]struct{}, len(member.Units))
		for _, unit := range member.Units {
			if _, dup := seen[unit.ID]; dup {
				continue
			}
			seen[unit.ID] = struct{}{}
			counts[unit.ID]++
		}
	}

	shared := make([]models.Unit, 0)
	for _, unit := range members[0].Units {
		if counts[unit.ID] == len(members) {
			shared = append(shared, unit)
		}
	}
	return shared
}

// OverlapScore counts how many of the candidate's units are shared by every
// current member of the group. An empty group scores the full size of the
// candidate's unit set, so unit-rich students are not penalised for founding
// a group.
func OverlapScore(candidateUnits []models.Unit, group models.Group) int {
	if len(group.Members) == 0 {
		return len(candidateUnits)
	}

	shared := make(map[uint]struct{})
	for _, unit := range SharedUnits(group.Members) {
		shared[unit.ID] = struct{}{}
	}

	score := 0
	counted := make(map[uint]struct{}, len(candidateUnits))
	for _, unit := range candidateUnits {
		if _, dup := counted[unit.ID]; dup {
			continue
		}
		counted[unit.ID] = struct{}{}
		if _, ok := shared[unit.ID]; ok {
			score++
		}
	}
	return score
}
