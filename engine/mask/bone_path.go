// Package mask resolves hierarchical bone paths into stable identifiers, groups those
// identifiers into body-part mask groups, and prunes animation targets that no group claims.
package mask

import (
	"encoding/binary"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// PathSeparator separates segments in the string form of a BonePath.
const PathSeparator = "/"

// boneNamespace seeds every BoneID so ids never collide with other name-based UUIDs.
var boneNamespace = uuid.MustParse("6f2c3f0e-8a4b-5d1c-9e7f-3b2a1c0d4e5f")

// BonePath is an ordered sequence of bone names from the root of a skeleton to a specific bone.
// Two paths are equal iff their segment sequences are equal.
type BonePath []string

// BoneID is the stable identifier of a bone, derived from its BonePath.
// Identical paths always yield identical ids, across calls and across skeleton instances.
type BoneID uuid.UUID

// ParseBonePath splits a "/"-separated path such as "Body/Right Arm Upper" into segments.
// Empty segments are dropped, so "" parses to an empty path.
//
// Parameters:
//   - s: the separator-delimited path
//
// Returns:
//   - BonePath: the ordered segments
func ParseBonePath(s string) BonePath {
	parts := strings.Split(s, PathSeparator)
	path := make(BonePath, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		path = append(path, part)
	}
	return path
}

// ID computes the BoneID for this path. Each segment is length-prefixed before hashing,
// so moving a separator between segments always changes the id.
//
// Returns:
//   - BoneID: the identifier of the bone at this path
func (p BonePath) ID() BoneID {
	var buf []byte
	for _, seg := range p {
		buf = binary.AppendUvarint(buf, uint64(len(seg)))
		buf = append(buf, seg...)
	}
	return BoneID(uuid.NewSHA1(boneNamespace, buf))
}

// String joins the segments with PathSeparator.
func (p BonePath) String() string {
	return strings.Join(p, PathSeparator)
}

// Equal reports whether both paths have identical segments in identical order.
func (p BonePath) Equal(other BonePath) bool {
	return slices.Equal(p, other)
}

// Append returns a new path with segments added after p. p is never modified.
func (p BonePath) Append(segments ...string) BonePath {
	out := make(BonePath, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Prefix returns a copy of the first n segments, clamped to the path length.
func (p BonePath) Prefix(n int) BonePath {
	n = max(0, min(n, len(p)))
	return slices.Clone(p[:n])
}

// IsPrefixOf reports whether p is a (not necessarily strict) prefix of other.
func (p BonePath) IsPrefixOf(other BonePath) bool {
	return len(p) <= len(other) && slices.Equal(p, other[:len(p)])
}

// String returns the canonical UUID text of the id.
func (id BoneID) String() string {
	return uuid.UUID(id).String()
}
