package mask

// TargetTree is the live skeleton as seen by the pruning pass: a forest of animatable
// nodes, each optionally carrying an animation-target binding.
type TargetTree interface {
	// Roots returns the root node indices in declaration order.
	//
	// Returns:
	//   - []int32: the root node indices
	Roots() []int32

	// Children returns the direct children of node in declaration order.
	//
	// Parameters:
	//   - node: the parent node index
	//
	// Returns:
	//   - []int32: the child node indices
	Children(node int32) []int32

	// Target returns the BoneID bound to node, if the node still has a binding.
	//
	// Parameters:
	//   - node: the node index
	//
	// Returns:
	//   - BoneID: the bound id
	//   - bool: false if the node has no binding
	Target(node int32) (BoneID, bool)

	// RemoveTarget drops the animation-target binding of node.
	//
	// Parameters:
	//   - node: the node index
	RemoveTarget(node int32)
}

// Walk visits every node of tree depth-first, parents before children, siblings in
// declaration order. It uses an explicit stack, so hierarchy depth is bounded only by memory.
// Returning false from fn skips that node's subtree.
//
// Parameters:
//   - tree: the tree to traverse
//   - fn: called once per visited node
func Walk(tree TargetTree, fn func(node int32) bool) {
	roots := tree.Roots()
	stack := make([]int32, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(node) {
			continue
		}

		children := tree.Children(node)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Prune removes the binding of every bound node whose BoneID is not in targets.
// Nodes without a binding are skipped, so running Prune again removes nothing.
//
// Parameters:
//   - tree: the live skeleton
//   - targets: the ids claimed by the mask group table
//
// Returns:
//   - []int32: the pruned node indices in traversal order
func Prune(tree TargetTree, targets TargetSet) []int32 {
	var pruned []int32
	Walk(tree, func(node int32) bool {
		id, bound := tree.Target(node)
		if bound && !targets.Contains(id) {
			tree.RemoveTarget(node)
			pruned = append(pruned, node)
		}
		return true
	})
	return pruned
}
