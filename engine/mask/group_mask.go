package mask

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxGroups is the number of mask groups a GroupMask can address.
const MaxGroups = 64

// GroupMask is a fixed-width bitset over mask group ids. Bit g set means group g is included.
type GroupMask uint64

// FullMask returns a mask covering groups 0..n-1. n is clamped to [0, MaxGroups].
func FullMask(n int) GroupMask {
	switch {
	case n <= 0:
		return 0
	case n >= MaxGroups:
		return ^GroupMask(0)
	}
	return GroupMask(1)<<uint(n) - 1
}

// MaskOfGroups returns a mask with exactly the given group ids set.
// Ids outside [0, MaxGroups) are ignored.
func MaskOfGroups(groups ...int) GroupMask {
	var m GroupMask
	for _, g := range groups {
		m = m.With(g)
	}
	return m
}

// With returns m with group g set.
func (m GroupMask) With(g int) GroupMask {
	if g < 0 || g >= MaxGroups {
		return m
	}
	return m | GroupMask(1)<<uint(g)
}

// Without returns m with group g cleared.
func (m GroupMask) Without(g int) GroupMask {
	if g < 0 || g >= MaxGroups {
		return m
	}
	return m &^ (GroupMask(1) << uint(g))
}

// Has reports whether group g is set.
func (m GroupMask) Has(g int) bool {
	if g < 0 || g >= MaxGroups {
		return false
	}
	return m&(GroupMask(1)<<uint(g)) != 0
}

// Intersects reports whether m and other share at least one group.
func (m GroupMask) Intersects(other GroupMask) bool {
	return m&other != 0
}

// Union returns the groups present in either mask.
func (m GroupMask) Union(other GroupMask) GroupMask {
	return m | other
}

// Intersect returns the groups present in both masks.
func (m GroupMask) Intersect(other GroupMask) GroupMask {
	return m & other
}

// IsEmpty reports whether no group is set.
func (m GroupMask) IsEmpty() bool {
	return m == 0
}

// Count returns the number of groups set.
func (m GroupMask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// Groups returns the set group ids in ascending order.
func (m GroupMask) Groups() []int {
	out := make([]int, 0, m.Count())
	for v := uint64(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}

// String renders the mask as "{0,3,5}".
func (m GroupMask) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, g := range m.Groups() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(g))
	}
	sb.WriteByte('}')
	return sb.String()
}
