// Package blend builds and evaluates the masked additive blend graph: one root, one
// additive-combine node under it, and one clip leaf per animation clip, each leaf carrying
// the GroupMask of body-part groups it may drive.
package blend

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
)

// NodeIndex addresses a node within a BlendGraph.
type NodeIndex int32

// NoNode is the parent index of the root node.
const NoNode NodeIndex = -1

// NodeKind identifies the role of a node in the graph.
type NodeKind int

const (
	// NodeKindRoot is the single graph root.
	NodeKindRoot NodeKind = iota

	// NodeKindAdd sums the contributions of its children per bone.
	NodeKindAdd

	// NodeKindClip samples one animation clip, gated by its GroupMask.
	NodeKindClip
)

// String returns a lowercase name for the kind.
func (k NodeKind) String() string {
	switch k {
	case NodeKindRoot:
		return "root"
	case NodeKindAdd:
		return "add"
	case NodeKindClip:
		return "clip"
	default:
		return "unknown"
	}
}

// ClipSpec describes one clip leaf: the clip it plays and the groups it may drive.
type ClipSpec struct {
	// Name is the clip name, used to look up configured masks.
	Name string

	// Index is the clip's position in the model's clip list, 0..C-1.
	Index int

	// Mask is the set of groups this clip is allowed to drive.
	Mask mask.GroupMask
}

// Node is a copy of one graph node. Mutating it never affects the graph.
type Node struct {
	// Index is the node's own index.
	Index NodeIndex

	// Kind is the node's role.
	Kind NodeKind

	// Parent is the parent node, or NoNode for the root.
	Parent NodeIndex

	// Children are the child nodes in insertion order.
	Children []NodeIndex

	// Weight scales the node's contribution. Always 1.0 in graphs built by NewGraph.
	Weight float32

	// Clip is set for NodeKindClip nodes.
	Clip ClipSpec
}

// blendGraph is the implementation of the BlendGraph interface.
type blendGraph struct {
	table   *mask.GroupTable
	nodes   []Node
	root    NodeIndex
	combine NodeIndex
	leaves  []NodeIndex
}

// BlendGraph defines the immutable, masked additive blend graph for one skeleton.
// A published graph is never rewritten; changing masks means building a new graph.
type BlendGraph interface {
	// Len returns the total number of nodes.
	//
	// Returns:
	//   - int: the node count
	Len() int

	// Root returns the root node index.
	//
	// Returns:
	//   - NodeIndex: the root
	Root() NodeIndex

	// Combine returns the additive-combine node under the root.
	//
	// Returns:
	//   - NodeIndex: the combine node
	Combine() NodeIndex

	// Leaves returns the clip leaf nodes in clip order.
	//
	// Returns:
	//   - []NodeIndex: one leaf per clip
	Leaves() []NodeIndex

	// Node returns a copy of the node at index.
	//
	// Parameters:
	//   - index: the node to fetch
	//
	// Returns:
	//   - Node: the node copy
	//   - bool: false if index is out of range
	Node(index NodeIndex) (Node, bool)

	// LeafForClip returns the leaf that plays the clip at clipIndex.
	//
	// Parameters:
	//   - clipIndex: the clip position in the model
	//
	// Returns:
	//   - NodeIndex: the leaf node
	//   - bool: false if no leaf plays that clip
	LeafForClip(clipIndex int) (NodeIndex, bool)

	// Clips returns the clip specs of every leaf in clip order.
	//
	// Returns:
	//   - []ClipSpec: the clip specs
	Clips() []ClipSpec

	// Table returns the mask group table the graph's masks refer to.
	//
	// Returns:
	//   - *mask.GroupTable: the group table
	Table() *mask.GroupTable
}

var _ BlendGraph = &blendGraph{}

func (g *blendGraph) Len() int {
	return len(g.nodes)
}

func (g *blendGraph) Root() NodeIndex {
	return g.root
}

func (g *blendGraph) Combine() NodeIndex {
	return g.combine
}

func (g *blendGraph) Leaves() []NodeIndex {
	return slices.Clone(g.leaves)
}

func (g *blendGraph) Node(index NodeIndex) (Node, bool) {
	if index < 0 || int(index) >= len(g.nodes) {
		return Node{}, false
	}
	n := g.nodes[index]
	n.Children = slices.Clone(n.Children)
	return n, true
}

func (g *blendGraph) LeafForClip(clipIndex int) (NodeIndex, bool) {
	if clipIndex < 0 || clipIndex >= len(g.leaves) {
		return NoNode, false
	}
	return g.leaves[clipIndex], true
}

func (g *blendGraph) Clips() []ClipSpec {
	out := make([]ClipSpec, len(g.leaves))
	for i, leaf := range g.leaves {
		out[i] = g.nodes[leaf].Clip
	}
	return out
}

func (g *blendGraph) Table() *mask.GroupTable {
	return g.table
}

// addNode appends a node under parent and returns its index.
func (g *blendGraph) addNode(kind NodeKind, parent NodeIndex, weight float32, clip ClipSpec) NodeIndex {
	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		Index:  idx,
		Kind:   kind,
		Parent: parent,
		Weight: weight,
		Clip:   clip,
	})
	if parent != NoNode {
		g.nodes[parent].Children = append(g.nodes[parent].Children, idx)
	}
	return idx
}
