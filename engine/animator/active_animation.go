package animator

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
)

// ActiveAnimation is the playback state of one clip leaf. Its methods are safe to call
// while the owning Animator advances. All methods are no-ops on a nil ActiveAnimation.
type ActiveAnimation struct {
	mu *sync.Mutex

	node     blend.NodeIndex
	clip     int
	duration float32

	time, speed      float32
	repeat, finished bool
}

// Repeat makes the animation loop at the end of its clip.
//
// Returns:
//   - *ActiveAnimation: the same animation, for chaining after Play
func (p *ActiveAnimation) Repeat() *ActiveAnimation {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = true
	p.finished = false
	return p
}

// SetSpeed sets the playback speed multiplier.
func (p *ActiveAnimation) SetSpeed(speed float32) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speed = speed
}

// Seek sets the playback position in seconds, wrapping or clamping it into the clip.
func (p *ActiveAnimation) Seek(t float32) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.time = 0
	p.finished = false
	p.advanceLocked(t)
}

// Elapsed returns the current playback position in seconds.
func (p *ActiveAnimation) Elapsed() float32 {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.time
}

// Finished reports whether a non-repeating animation has reached the end of its clip.
func (p *ActiveAnimation) Finished() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// Repeating reports whether the animation loops.
func (p *ActiveAnimation) Repeating() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

// Node returns the clip leaf being played.
func (p *ActiveAnimation) Node() blend.NodeIndex {
	if p == nil {
		return blend.NoNode
	}
	return p.node
}

// Clip returns the index of the clip being played.
func (p *ActiveAnimation) Clip() int {
	if p == nil {
		return -1
	}
	return p.clip
}

// advance is called by the Animator with the shared lock held.
func (p *ActiveAnimation) advance(deltaTime float32) {
	p.advanceLocked(deltaTime * p.speed)
}

func (p *ActiveAnimation) advanceLocked(step float32) {
	if p.finished {
		return
	}
	p.time += step
	if p.repeat {
		p.time = wrapTime(p.time, p.duration)
		return
	}
	p.time, p.finished = clampTime(p.time, p.duration)
}
