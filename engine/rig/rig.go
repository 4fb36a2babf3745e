// Package rig drives one skinned character instance through mask setup: bone bindings when
// its skeleton arrives, a single graph construction once the animator is attached, target
// pruning, and looped playback of every clip leaf.
package rig

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-mask/engine/animator"
	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// ErrReleased is returned when a released Rig is rebuilt.
var ErrReleased = errors.New("rig: rig released")

// rig is the implementation of the Rig interface.
type rig struct {
	mu *sync.Mutex

	id     uint64
	name   string
	logger *slog.Logger

	assets       *blend.Assets
	table        *mask.GroupTable
	graphOptions []blend.GraphBuilderOption

	state     State
	processed bool
	released  bool

	model    model.Model
	roots    []int32
	children [][]int32
	bones    []blend.BoneState

	animator animator.Animator
	handle   *blend.GraphHandle
	pose     []model.Transform
}

// Rig defines the per-instance masking state machine:
// Unloaded, SkeletonReady, GraphBuilt, Pruned, Playing.
//
// The graph is constructed exactly once per instance, on the first Update that sees both a
// skeleton and an animator. Later skeleton-ready signals and updates are ignored; changing
// masks afterwards goes through Rebuild, which publishes a new graph.
//
// A Rig is also the mask.TargetTree of its skeleton: nodes are bone indices and a node's
// target is the BoneID of its binding.
type Rig interface {
	mask.TargetTree

	// ID returns the rig's unique identifier.
	//
	// Returns:
	//   - uint64: the rig ID
	ID() uint64

	// SetID sets the rig's unique identifier. Called by the Scene the rig is added to.
	//
	// Parameters:
	//   - id: the new ID
	SetID(id uint64)

	// Name returns the rig's name.
	//
	// Returns:
	//   - string: the rig name
	Name() string

	// State returns the current setup stage. A released rig reports StateUnloaded.
	//
	// Returns:
	//   - State: the stage
	State() State

	// Table returns the mask group table the rig's graph is built from.
	//
	// Returns:
	//   - *mask.GroupTable: the table
	Table() *mask.GroupTable

	// Model returns the model whose skeleton the rig binds.
	//
	// Returns:
	//   - model.Model: the model, or nil before SkeletonReady
	Model() model.Model

	// SkeletonReady records that the model's skeleton is available and binds every bone to
	// the BoneID of its full name path. Ignored once the graph has been constructed, and for
	// models without a skeleton.
	//
	// Parameters:
	//   - m: the loaded model
	SkeletonReady(m model.Model)

	// AttachAnimator sets the player component the graph is attached to.
	//
	// Parameters:
	//   - a: the animator
	AttachAnimator(a animator.Animator)

	// Animator returns the attached player component.
	//
	// Returns:
	//   - animator.Animator: the animator, or nil
	Animator() animator.Animator

	// Update runs the setup steps when the skeleton and animator are both present and the
	// graph has not been constructed yet: build and publish the graph, prune, play every leaf
	// on repeat. Otherwise it does nothing.
	//
	// Returns:
	//   - bool: true if setup ran during this call
	//   - error: a graph construction error; the rig stays in StateSkeletonReady
	Update() (bool, error)

	// Graph returns the rig's published graph.
	//
	// Returns:
	//   - blend.BlendGraph: the graph, or nil before construction
	Graph() blend.BlendGraph

	// GraphHandle returns the rig's own reference to the published graph.
	//
	// Returns:
	//   - *blend.GraphHandle: the handle, or nil before construction
	GraphHandle() *blend.GraphHandle

	// BoundCount returns the number of bones that still have a binding.
	//
	// Returns:
	//   - int: the bound bone count
	BoundCount() int

	// Step advances playback by deltaTime and evaluates the pose. No-op unless playing.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Step(deltaTime float32)

	// Pose returns a copy of the pose computed by the last Step.
	//
	// Returns:
	//   - []model.Transform: local transforms indexed by bone, or nil before playback
	Pose() []model.Transform

	// Rebuild swaps in a graph built from table and options. Bindings are restored, pruned
	// against the new target set, and every leaf replays from time zero. The previous graph
	// is released by the rig and the animator. Before construction it only replaces the
	// table and options the first Update will use.
	//
	// Parameters:
	//   - table: the new mask group table
	//   - options: the new graph builder options
	//
	// Returns:
	//   - error: a graph construction error, with the current graph left in place, or ErrReleased
	Rebuild(table *mask.GroupTable, options ...blend.GraphBuilderOption) error

	// Assets returns the graph asset store the rig publishes its graphs to.
	//
	// Returns:
	//   - *blend.Assets: the store
	Assets() *blend.Assets

	// Release releases the rig's graph reference and its animator and returns the rig to
	// StateUnloaded. A released rig never plays again.
	Release()
}

var _ Rig = &rig{}

// NewRig creates a new Rig over table with the specified options applied.
// It panics if table is nil.
//
// Parameters:
//   - table: the mask group table
//   - options: a variadic list of RigBuilderOption functions to configure the Rig
//
// Returns:
//   - Rig: a new Rig in StateUnloaded
func NewRig(table *mask.GroupTable, options ...RigBuilderOption) Rig {
	if table == nil {
		panic("rig: NewRig requires a group table")
	}
	r := &rig{
		mu:    &sync.Mutex{},
		table: table,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.assets == nil {
		r.assets = blend.NewAssets()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("rig", r.name)
	return r
}

func (r *rig) ID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

func (r *rig) SetID(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = id
}

func (r *rig) Name() string {
	return r.name
}

func (r *rig) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *rig) Table() *mask.GroupTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table
}

func (r *rig) Model() model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

func (r *rig) SkeletonReady(m model.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.processed || r.released {
		r.logger.Debug("skeleton ready after graph construction or release, ignored")
		return
	}
	if m == nil || m.Skeleton().BoneCount() == 0 {
		r.logger.Debug("model has no skeleton, ignored")
		return
	}

	r.model = m
	skeleton := m.Skeleton()
	r.roots = skeleton.RootBoneIndices
	r.children = skeleton.Children()
	r.bones = make([]blend.BoneState, len(skeleton.Bones))
	for i, bone := range skeleton.Bones {
		r.bones[i] = blend.BoneState{
			ID:   mask.BonePath(skeleton.BonePath(int32(i))).ID(),
			Rest: bone.LocalTransform,
		}
	}
	r.bindAllLocked()
	r.state = StateSkeletonReady
	r.logger.Debug("skeleton ready", "bones", len(r.bones))
}

func (r *rig) AttachAnimator(a animator.Animator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.animator = a
}

func (r *rig) Animator() animator.Animator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.animator
}

func (r *rig) Update() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.processed || r.released || r.model == nil || r.animator == nil {
		return false, nil
	}

	handle, err := r.buildLocked(r.table, r.graphOptions)
	if err != nil {
		return false, err
	}
	r.attachLocked(handle)
	r.processed = true
	r.logger.Info("rig playing", "id", r.id, "graph", handle.ID(), "clips", len(handle.Graph().Leaves()), "bound", r.boundCountLocked())
	return true, nil
}

func (r *rig) Graph() blend.BlendGraph {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle.Graph()
}

func (r *rig) GraphHandle() *blend.GraphHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

func (r *rig) BoundCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundCountLocked()
}

func (r *rig) Step(deltaTime float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying || r.animator == nil {
		return
	}
	r.animator.Advance(deltaTime)
	if len(r.pose) != len(r.bones) {
		r.pose = make([]model.Transform, len(r.bones))
	}
	r.animator.Pose(r.bones, r.pose)
}

func (r *rig) Pose() []model.Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pose == nil {
		return nil
	}
	out := make([]model.Transform, len(r.pose))
	copy(out, r.pose)
	return out
}

func (r *rig) Rebuild(table *mask.GroupTable, options ...blend.GraphBuilderOption) error {
	if table == nil {
		panic("rig: Rebuild requires a group table")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if !r.processed {
		r.table = table
		r.graphOptions = options
		return nil
	}

	handle, err := r.buildLocked(table, options)
	if err != nil {
		return fmt.Errorf("rig: rebuild %q: %w", r.name, err)
	}

	previous := r.handle
	r.table = table
	r.graphOptions = options
	r.bindAllLocked()
	r.attachLocked(handle)
	previous.Release()
	r.logger.Info("rig rebuilt", "id", r.id, "graph", handle.ID(), "bound", r.boundCountLocked())
	return nil
}

func (r *rig) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.handle.Release()
	r.handle = nil
	if r.animator != nil {
		r.animator.Release()
	}
	r.pose = nil
	r.state = StateUnloaded
}

func (r *rig) Assets() *blend.Assets {
	return r.assets
}

// Roots implements mask.TargetTree.
func (r *rig) Roots() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roots
}

// Children implements mask.TargetTree.
func (r *rig) Children(node int32) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return boneTree{r}.Children(node)
}

// Target implements mask.TargetTree.
func (r *rig) Target(node int32) (mask.BoneID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return boneTree{r}.Target(node)
}

// RemoveTarget implements mask.TargetTree.
func (r *rig) RemoveTarget(node int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	boneTree{r}.RemoveTarget(node)
}

// boneTree is the rig's skeleton as a mask.TargetTree, for use while r.mu is held.
type boneTree struct {
	r *rig
}

var _ mask.TargetTree = boneTree{}

func (t boneTree) Roots() []int32 {
	return t.r.roots
}

func (t boneTree) Children(node int32) []int32 {
	if node < 0 || int(node) >= len(t.r.children) {
		return nil
	}
	return t.r.children[node]
}

func (t boneTree) Target(node int32) (mask.BoneID, bool) {
	if node < 0 || int(node) >= len(t.r.bones) || !t.r.bones[node].Bound {
		return mask.BoneID{}, false
	}
	return t.r.bones[node].ID, true
}

func (t boneTree) RemoveTarget(node int32) {
	if node < 0 || int(node) >= len(t.r.bones) {
		return
	}
	t.r.bones[node].Bound = false
}

// buildLocked builds and publishes a graph for the model's clips, returning the rig's handle.
func (r *rig) buildLocked(table *mask.GroupTable, options []blend.GraphBuilderOption) (*blend.GraphHandle, error) {
	g, err := blend.NewGraph(table, r.model.AnimationNames(), options...)
	if err != nil {
		return nil, err
	}
	for _, clip := range g.Clips() {
		if clip.Mask.IsEmpty() {
			r.logger.Warn("clip has an empty mask and never contributes", "clip", clip.Name)
		}
	}
	return r.assets.Add(g), nil
}

// attachLocked hands a clone of handle to the animator, prunes, and plays every leaf.
func (r *rig) attachLocked(handle *blend.GraphHandle) {
	r.handle = handle
	r.state = StateGraphBuilt

	if r.animator.Model() != r.model {
		r.animator.SetModel(r.model)
	}
	player, err := handle.Clone()
	if err != nil {
		panic(fmt.Sprintf("rig: clone fresh graph handle: %v", err))
	}
	r.animator.SetGraph(player)

	pruned := mask.Prune(boneTree{r}, r.table.TargetSet())
	r.state = StatePruned
	r.logger.Debug("pruned unclaimed bones", "pruned", len(pruned))

	for _, leaf := range handle.Graph().Leaves() {
		r.animator.Play(leaf).Repeat()
	}
	r.pose = nil
	r.state = StatePlaying
}

func (r *rig) bindAllLocked() {
	for i := range r.bones {
		r.bones[i].Bound = true
	}
}

func (r *rig) boundCountLocked() int {
	var n int
	for _, b := range r.bones {
		if b.Bound {
			n++
		}
	}
	return n
}
