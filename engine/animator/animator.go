// Package animator is the playback driver: it plays blend graph clip leaves, advances their
// clocks, samples clip keyframes and evaluates the combined pose through the attached graph.
package animator

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-mask/common"
	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	model    model.Model
	clips    []*model.AnimationClip
	channels []map[int32]int
	rest     []model.Transform

	handle  *blend.GraphHandle
	playing map[blend.NodeIndex]*ActiveAnimation
	order   []blend.NodeIndex
}

// Animator defines the public interface of the skeletal player attached to one rig.
//
// An Animator holds one reference to a published blend graph. Every clip leaf played through
// it keeps its own clock; Pose combines the leaves through the graph at their current times.
type Animator interface {
	// Model returns the model whose clips and rest pose the Animator samples.
	//
	// Returns:
	//   - model.Model: the model, or nil if none is set
	Model() model.Model

	// SetModel assigns the model and indexes its clip channels by bone.
	// Any current playback is stopped.
	//
	// Parameters:
	//   - m: the model to sample
	SetModel(m model.Model)

	// SetGraph takes ownership of handle as the Animator's graph reference. The previous
	// handle is released and all playback stops.
	//
	// Parameters:
	//   - handle: the graph handle to hold, or nil to detach
	SetGraph(handle *blend.GraphHandle)

	// Graph returns the attached graph.
	//
	// Returns:
	//   - blend.BlendGraph: the graph, or nil if none is attached
	Graph() blend.BlendGraph

	// GraphID returns the asset id of the attached graph.
	//
	// Returns:
	//   - uint64: the asset id, or 0 if none is attached
	GraphID() uint64

	// Play starts the clip leaf node at time zero. Playing a node that is already playing
	// restarts it.
	//
	// Parameters:
	//   - node: a clip leaf of the attached graph
	//
	// Returns:
	//   - *ActiveAnimation: the playback state, or nil if node is not a clip leaf
	Play(node blend.NodeIndex) *ActiveAnimation

	// Playing returns the playback state of node.
	//
	// Parameters:
	//   - node: the clip leaf
	//
	// Returns:
	//   - *ActiveAnimation: the playback state
	//   - bool: false if node is not playing
	Playing(node blend.NodeIndex) (*ActiveAnimation, bool)

	// PlayingCount returns the number of playing leaves.
	//
	// Returns:
	//   - int: the count
	PlayingCount() int

	// StopAll stops every playing leaf.
	StopAll()

	// Advance moves every playing leaf forward by deltaTime scaled by its speed.
	// Repeating leaves wrap at the clip duration; others clamp and finish.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	Advance(deltaTime float32)

	// Sample interpolates the keyframes of clip for bone at time t. Components the clip
	// does not animate fall back to the bone's rest transform.
	//
	// Parameters:
	//   - clip: the clip index in the model
	//   - bone: the bone index in the skeleton
	//   - t: the clip time in seconds
	//
	// Returns:
	//   - model.Transform: the local transform
	//   - bool: false if the clip has no channel for bone
	Sample(clip int, bone int32, t float32) (model.Transform, bool)

	// Pose evaluates the attached graph over bones at the current leaf times.
	//
	// Parameters:
	//   - bones: the per-bone binding state, indexed like the skeleton
	//   - out: receives the local transforms; must be at least len(bones) long
	//
	// Returns:
	//   - bool: false if no graph is attached
	Pose(bones []blend.BoneState, out []model.Transform) bool

	// Release releases the graph reference and stops playback.
	Release()
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the specified options applied.
//
// Parameters:
//   - options: a variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new instance of Animator configured with the provided options
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:      &sync.Mutex{},
		playing: make(map[blend.NodeIndex]*ActiveAnimation),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) Model() model.Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

func (a *animator) SetModel(m model.Model) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.model = m
	a.clips = nil
	a.channels = nil
	a.rest = nil
	a.stopLocked()
	if m == nil {
		return
	}

	a.clips = m.Animations()
	a.rest = m.Skeleton().RestPose()
	a.channels = make([]map[int32]int, len(a.clips))
	for i, clip := range a.clips {
		index := make(map[int32]int)
		if clip != nil {
			for c, ch := range clip.Channels {
				index[ch.BoneIndex] = c
			}
		}
		a.channels[i] = index
	}
}

func (a *animator) SetGraph(handle *blend.GraphHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle != nil && a.handle != handle {
		a.handle.Release()
	}
	a.handle = handle
	a.stopLocked()
}

func (a *animator) Graph() blend.BlendGraph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle.Graph()
}

func (a *animator) GraphID() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle.Released() {
		return 0
	}
	return a.handle.ID()
}

func (a *animator) Play(node blend.NodeIndex) *ActiveAnimation {
	a.mu.Lock()
	defer a.mu.Unlock()

	g := a.handle.Graph()
	if g == nil {
		return nil
	}
	n, ok := g.Node(node)
	if !ok || n.Kind != blend.NodeKindClip {
		return nil
	}

	anim := &ActiveAnimation{
		mu:    a.mu,
		node:  node,
		clip:  n.Clip.Index,
		speed: 1.0,
	}
	if n.Clip.Index < len(a.clips) && a.clips[n.Clip.Index] != nil {
		anim.duration = a.clips[n.Clip.Index].Duration
	}

	if _, exists := a.playing[node]; !exists {
		a.order = append(a.order, node)
	}
	a.playing[node] = anim
	return anim
}

func (a *animator) Playing(node blend.NodeIndex) (*ActiveAnimation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	anim, ok := a.playing[node]
	return anim, ok
}

func (a *animator) PlayingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.playing)
}

func (a *animator) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *animator) Advance(deltaTime float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, node := range a.order {
		a.playing[node].advance(deltaTime)
	}
}

func (a *animator) Sample(clip int, bone int32, t float32) (model.Transform, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sampleLocked(clip, bone, t)
}

func (a *animator) Pose(bones []blend.BoneState, out []model.Transform) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	g := a.handle.Graph()
	if g == nil {
		return false
	}

	blend.Evaluate(g, bones, func(leaf blend.NodeIndex, clip blend.ClipSpec, bone int) (model.Transform, bool) {
		anim, ok := a.playing[leaf]
		if !ok {
			return model.Transform{}, false
		}
		return a.sampleLocked(clip.Index, int32(bone), anim.time)
	}, out)
	return true
}

func (a *animator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handle.Release()
	a.handle = nil
	a.stopLocked()
}

func (a *animator) stopLocked() {
	clear(a.playing)
	a.order = a.order[:0]
}

// restLocked returns the rest transform of bone, or identity when the skeleton lacks it.
func (a *animator) restLocked(bone int32) model.Transform {
	if bone >= 0 && int(bone) < len(a.rest) {
		return a.rest[bone]
	}
	return model.IdentityTransform()
}

// sampleLocked interpolates the channel of clip for bone at time t.
func (a *animator) sampleLocked(clip int, bone int32, t float32) (model.Transform, bool) {
	if clip < 0 || clip >= len(a.clips) || a.clips[clip] == nil {
		return model.Transform{}, false
	}
	c, ok := a.channels[clip][bone]
	if !ok {
		return model.Transform{}, false
	}
	ch := &a.clips[clip].Channels[c]

	out := a.restLocked(bone)
	if v, ok := sampleVector(ch.PositionKeys, t); ok {
		out.Translation = v
	}
	if q, ok := sampleQuat(ch.RotationKeys, t); ok {
		out.Rotation = q
	}
	if v, ok := sampleVector(ch.ScaleKeys, t); ok {
		out.Scale = v
	}
	return out, true
}

// clampTime keeps t within [0, duration] for a clip that does not repeat.
func clampTime(t, duration float32) (float32, bool) {
	if t < 0 {
		return 0, true
	}
	if t >= duration {
		return duration, true
	}
	return t, false
}

// wrapTime wraps t into the clip's duration for a repeating clip.
func wrapTime(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	return common.Wrap(t, duration)
}
