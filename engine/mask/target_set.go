package mask

import (
	"bytes"
	"slices"
)

// TargetSet is the immutable set of BoneIDs claimed by at least one mask group.
// A bone outside the set is never animated.
type TargetSet struct {
	ids map[BoneID]struct{}
}

// NewTargetSet builds a TargetSet from ids. Duplicates collapse.
func NewTargetSet(ids ...BoneID) TargetSet {
	set := TargetSet{ids: make(map[BoneID]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is claimed.
func (s TargetSet) Contains(id BoneID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of claimed ids.
func (s TargetSet) Len() int {
	return len(s.ids)
}

// IDs returns the claimed ids in ascending byte order.
func (s TargetSet) IDs() []BoneID {
	out := make([]BoneID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b BoneID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

// Equal reports whether both sets hold the same ids.
func (s TargetSet) Equal(other TargetSet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
