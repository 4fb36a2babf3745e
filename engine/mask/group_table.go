package mask

import (
	"errors"
	"fmt"

	"cogentcore.org/core/base/ordmap"
)

var (
	// ErrTooManyGroups is returned when a table declares more groups than a GroupMask can hold.
	ErrTooManyGroups = fmt.Errorf("mask: more than %d mask groups", MaxGroups)

	// ErrEmptyPrefix is returned when a group spec has no prefix segments.
	ErrEmptyPrefix = errors.New("mask: group prefix must have at least one segment")

	// ErrDuplicateGroup is returned when two group specs share a name.
	ErrDuplicateGroup = errors.New("mask: duplicate group name")

	// ErrUnknownGroup is returned when a group name is not declared in the table.
	ErrUnknownGroup = errors.New("mask: unknown group")
)

// MaskGroupSpec declares one mask group as a chain of bones. For every chain length
// 0..len(Suffix), Prefix followed by the first chain-length Suffix segments names one
// bone owned by the group, so a group owns its leaf bone and every joint down to the
// point where it attaches to the parent group.
type MaskGroupSpec struct {
	// Name identifies the group in configuration. Empty names become "group_<index>".
	Name string

	// Prefix is the attachment point shared with the parent group, e.g. ["Body"].
	Prefix BonePath

	// Suffix is the chain of bones below Prefix that the group owns.
	Suffix BonePath
}

// groupEntry is the resolved form of a MaskGroupSpec.
type groupEntry struct {
	spec  MaskGroupSpec
	chain []BoneID
}

// GroupTable is the immutable, resolved mask group table. Group ids are the declaration
// order of the specs and are used as bit positions in a GroupMask.
//
// A single BoneID may belong to several groups: a shared ancestor such as "Body" is a
// member of every group whose prefix contains it.
type GroupTable struct {
	groups     *ordmap.Map[string, *groupEntry]
	membership map[BoneID]GroupMask
	paths      map[BoneID]BonePath
	targets    TargetSet
}

// NewGroupTable resolves the specs into a GroupTable. It fails fast when more than
// MaxGroups specs are declared, a prefix is empty, or two specs share a name.
// Bone paths are never validated against a loaded skeleton.
//
// Parameters:
//   - specs: the group declarations in id order
//
// Returns:
//   - *GroupTable: the resolved table
//   - error: a configuration error
func NewGroupTable(specs ...MaskGroupSpec) (*GroupTable, error) {
	if len(specs) > MaxGroups {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyGroups, len(specs))
	}

	t := &GroupTable{
		groups:     ordmap.New[string, *groupEntry](),
		membership: make(map[BoneID]GroupMask),
		paths:      make(map[BoneID]BonePath),
	}
	ids := make(map[BoneID]struct{})

	for g, spec := range specs {
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("group_%d", g)
		}
		if len(spec.Prefix) == 0 {
			return nil, fmt.Errorf("group %q: %w", spec.Name, ErrEmptyPrefix)
		}
		if _, exists := t.groups.IndexByKeyTry(spec.Name); exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroup, spec.Name)
		}

		spec.Prefix = spec.Prefix.Append()
		spec.Suffix = spec.Suffix.Append()

		entry := &groupEntry{spec: spec, chain: make([]BoneID, 0, len(spec.Suffix)+1)}
		for chainLen := 0; chainLen <= len(spec.Suffix); chainLen++ {
			path := spec.Prefix.Append(spec.Suffix[:chainLen]...)
			id := path.ID()
			entry.chain = append(entry.chain, id)
			t.membership[id] = t.membership[id].With(g)
			t.paths[id] = path
			ids[id] = struct{}{}
		}
		t.groups.Add(spec.Name, entry)
	}

	t.targets = TargetSet{ids: ids}
	return t, nil
}

// Len returns the number of groups.
func (t *GroupTable) Len() int {
	return t.groups.Len()
}

// Spec returns the declaration of group g with its resolved name.
// Panics if g is out of range.
func (t *GroupTable) Spec(g int) MaskGroupSpec {
	spec := t.groups.ValueByIndex(g).spec
	spec.Prefix = spec.Prefix.Append()
	spec.Suffix = spec.Suffix.Append()
	return spec
}

// Index returns the id of the named group.
func (t *GroupTable) Index(name string) (int, bool) {
	return t.groups.IndexByKeyTry(name)
}

// Names returns the group names in id order.
func (t *GroupTable) Names() []string {
	return t.groups.Keys()
}

// Chain returns the BoneIDs registered by group g, ordered by chain length 0..len(Suffix).
// Panics if g is out of range.
func (t *GroupTable) Chain(g int) []BoneID {
	chain := t.groups.ValueByIndex(g).chain
	out := make([]BoneID, len(chain))
	copy(out, chain)
	return out
}

// ChainPaths returns the BonePaths behind Chain(g), in the same order.
func (t *GroupTable) ChainPaths(g int) []BonePath {
	chain := t.groups.ValueByIndex(g).chain
	out := make([]BonePath, len(chain))
	for i, id := range chain {
		out[i] = t.paths[id].Append()
	}
	return out
}

// Membership returns the set of groups that own id. Unclaimed ids return an empty mask.
func (t *GroupTable) Membership(id BoneID) GroupMask {
	return t.membership[id]
}

// Path returns the declared path that produced id.
func (t *GroupTable) Path(id BoneID) (BonePath, bool) {
	p, ok := t.paths[id]
	if !ok {
		return nil, false
	}
	return p.Append(), true
}

// TargetSet returns the union of every group's BoneIDs.
func (t *GroupTable) TargetSet() TargetSet {
	return t.targets
}

// FullMask returns the mask covering every group in the table.
func (t *GroupTable) FullMask() GroupMask {
	return FullMask(t.Len())
}

// MaskOf returns the mask of the named groups.
//
// Parameters:
//   - names: group names declared in this table
//
// Returns:
//   - GroupMask: the union of the named groups
//   - error: ErrUnknownGroup if a name is not declared
func (t *GroupTable) MaskOf(names ...string) (GroupMask, error) {
	var m GroupMask
	for _, name := range names {
		g, ok := t.Index(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
		}
		m = m.With(g)
	}
	return m, nil
}
