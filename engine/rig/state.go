package rig

// State is the setup stage of a Rig.
type State int

const (
	// StateUnloaded means no skeleton has been seen yet.
	StateUnloaded State = iota

	// StateSkeletonReady means the skeleton is known and its bones are bound.
	StateSkeletonReady

	// StateGraphBuilt means the blend graph is published and attached to the animator.
	StateGraphBuilt

	// StatePruned means bones outside the target set have lost their bindings.
	StatePruned

	// StatePlaying means every clip leaf is playing on repeat.
	StatePlaying
)

// String returns a lowercase name for the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateSkeletonReady:
		return "skeleton_ready"
	case StateGraphBuilt:
		return "graph_built"
	case StatePruned:
		return "pruned"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
