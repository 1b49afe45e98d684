package grouping

import "github.com/ouk-labs/grouper-api/internal/models"

// placementKey orders candidate groups lexicographically:
// larger balance gain, then smaller post-insertion gender gap, then larger
// unit overlap, then earlier creation. The final component makes ranking a
// total order, so placement is deterministic.
type placementKey struct {
	balanceGain int
	postGap     int
	overlap     int
	groupID     uint
}

func keyFor(student models.Student, group models.Group) placementKey {
	males, females := 0, 0
	for _, member := range group.Members {
		switch member.Gender {
		case models.GenderMale:
			males++
		case models.GenderFemale:
			females++
		}
	}

	preGap := absInt(males - females)
	switch student.Gender {
	case models.GenderMale:
		males++
	case models.GenderFemale:
		females++
	}
	postGap := absInt(males - females)

	return placementKey{
		balanceGain: preGap - postGap,
		postGap:     postGap,
		overlap:     OverlapScore(student.Units, group),
		groupID:     group.ID,
	}
}

func (k placementKey) betterThan(other placementKey) bool {
	if k.balanceGain != other.balanceGain {
		return k.balanceGain > other.balanceGain
	}
	if k.postGap != other.postGap {
		return k.postGap < other.postGap
	}
	if k.overlap != other.overlap {
		return k.overlap > other.overlap
	}
	return k.groupID < other.groupID
}

// SelectGroup ranks the groups that still have a free slot and returns the
// best candidate for the student, or nil when every group is full. The
// decision is a single greedy pass; existing memberships are never revisited.
func SelectGroup(student models.Student, groups []models.Group, guard CapacityGuard) *models.Group {
	var best *models.Group
	var bestKey placementKey

	for i := range groups {
		if !guard.HasFreeSlot(groups[i]) {
			continue
		}
		key := keyFor(student, groups[i])
		if best == nil || key.betterThan(bestKey) {
			best = &groups[i]
			bestKey = key
		}
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
