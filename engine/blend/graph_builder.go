package blend

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
)

// ErrMaskOutOfRange is returned when a clip mask names a group the table does not declare.
var ErrMaskOutOfRange = errors.New("blend: clip mask references a group outside the table")

// MaskPolicy selects how clip masks are assigned when a graph is built.
type MaskPolicy int

const (
	// PolicyExplicit gives the base clip the full mask and every other clip its configured
	// mask, falling back to the full mask for clips with no configuration.
	PolicyExplicit MaskPolicy = iota

	// PolicyFull gives every clip the full mask, ignoring configured masks.
	PolicyFull
)

// String returns the configuration name of the policy.
func (p MaskPolicy) String() string {
	switch p {
	case PolicyExplicit:
		return "explicit"
	case PolicyFull:
		return "full"
	default:
		return fmt.Sprintf("MaskPolicy(%d)", int(p))
	}
}

// ParseMaskPolicy returns the policy named s. An empty string is PolicyExplicit.
func ParseMaskPolicy(s string) (MaskPolicy, error) {
	switch s {
	case "", "explicit":
		return PolicyExplicit, nil
	case "full":
		return PolicyFull, nil
	default:
		return PolicyExplicit, fmt.Errorf("blend: unknown mask policy %q", s)
	}
}

// graphBuilder collects the options applied by NewGraph.
type graphBuilder struct {
	policy     MaskPolicy
	masks      map[string]mask.GroupMask
	groupNames map[string][]string
}

// GraphBuilderOption is a functional option for configuring a BlendGraph via NewGraph.
type GraphBuilderOption func(*graphBuilder)

// WithPolicy is an option builder that sets the mask assignment policy.
//
// Parameters:
//   - policy: the policy to apply
//
// Returns:
//   - GraphBuilderOption: a function that applies the policy option to a builder
func WithPolicy(policy MaskPolicy) GraphBuilderOption {
	return func(b *graphBuilder) {
		b.policy = policy
	}
}

// WithClipMask is an option builder that sets the group mask for every clip named name.
//
// Parameters:
//   - name: the clip name
//   - m: the groups the clip may drive
//
// Returns:
//   - GraphBuilderOption: a function that applies the mask option to a builder
func WithClipMask(name string, m mask.GroupMask) GraphBuilderOption {
	return func(b *graphBuilder) {
		if b.masks == nil {
			b.masks = make(map[string]mask.GroupMask)
		}
		b.masks[name] = m
		delete(b.groupNames, name)
	}
}

// WithClipGroups is an option builder that sets the mask for every clip named name from
// group names, resolved against the table when the graph is built.
//
// Parameters:
//   - name: the clip name
//   - groups: the names of the groups the clip may drive
//
// Returns:
//   - GraphBuilderOption: a function that applies the group option to a builder
func WithClipGroups(name string, groups ...string) GraphBuilderOption {
	return func(b *graphBuilder) {
		if b.groupNames == nil {
			b.groupNames = make(map[string][]string)
		}
		b.groupNames[name] = append([]string(nil), groups...)
		delete(b.masks, name)
	}
}

// NewGraph builds the masked additive blend graph for clips: a root, one additive-combine
// child of the root, and one leaf per clip under the combine node, all with weight 1.0.
// Clip indices follow the order of clips.
//
// Parameters:
//   - table: the mask group table the masks refer to
//   - clips: the clip names in clip-index order
//   - options: mask policy and per-clip masks
//
// Returns:
//   - BlendGraph: the built graph
//   - error: ErrMaskOutOfRange or mask.ErrUnknownGroup for a bad clip mask
func NewGraph(table *mask.GroupTable, clips []string, options ...GraphBuilderOption) (BlendGraph, error) {
	if table == nil {
		panic("blend: NewGraph requires a group table")
	}

	b := &graphBuilder{}
	for _, opt := range options {
		opt(b)
	}

	masks, err := b.resolveMasks(table, clips)
	if err != nil {
		return nil, err
	}

	g := &blendGraph{
		table:  table,
		nodes:  make([]Node, 0, len(clips)+2),
		leaves: make([]NodeIndex, 0, len(clips)),
	}
	g.root = g.addNode(NodeKindRoot, NoNode, 1.0, ClipSpec{Index: -1})
	g.combine = g.addNode(NodeKindAdd, g.root, 1.0, ClipSpec{Index: -1})
	for i, name := range clips {
		leaf := g.addNode(NodeKindClip, g.combine, 1.0, ClipSpec{
			Name:  name,
			Index: i,
			Mask:  masks[i],
		})
		g.leaves = append(g.leaves, leaf)
	}
	return g, nil
}

// resolveMasks returns the mask of every clip under the builder's policy.
func (b *graphBuilder) resolveMasks(table *mask.GroupTable, clips []string) ([]mask.GroupMask, error) {
	full := table.FullMask()
	out := make([]mask.GroupMask, len(clips))
	for i, name := range clips {
		if i == 0 || b.policy == PolicyFull {
			out[i] = full
			continue
		}

		if groups, ok := b.groupNames[name]; ok {
			m, err := table.MaskOf(groups...)
			if err != nil {
				return nil, fmt.Errorf("blend: clip %q: %w", name, err)
			}
			out[i] = m
			continue
		}

		if m, ok := b.masks[name]; ok {
			if m&^full != 0 {
				return nil, fmt.Errorf("%w: clip %q mask %s with %d groups", ErrMaskOutOfRange, name, m, table.Len())
			}
			out[i] = m
			continue
		}

		out[i] = full
	}
	return out, nil
}
