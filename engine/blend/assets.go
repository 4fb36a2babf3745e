package blend

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrGraphReleased is returned when a released GraphHandle is cloned.
var ErrGraphReleased = errors.New("blend: graph handle already released")

// Assets holds published blend graphs. A graph stays resident while at least one
// GraphHandle to it is unreleased.
type Assets struct {
	mu     sync.Mutex
	nextID uint64
	live   map[uint64]*graphAsset
}

// graphAsset is one published graph and its holder count.
type graphAsset struct {
	id     uint64
	graph  BlendGraph
	refs   atomic.Int32
	assets *Assets
}

// GraphHandle is one holder's reference to a published graph.
type GraphHandle struct {
	asset    *graphAsset
	released atomic.Bool
}

// NewAssets creates an empty graph asset store.
func NewAssets() *Assets {
	return &Assets{live: make(map[uint64]*graphAsset)}
}

// Add publishes g and returns the first handle to it.
//
// Parameters:
//   - g: the graph to publish
//
// Returns:
//   - *GraphHandle: a handle with a holder count of 1
func (a *Assets) Add(g BlendGraph) *GraphHandle {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	asset := &graphAsset{id: a.nextID, graph: g, assets: a}
	asset.refs.Store(1)
	a.live[asset.id] = asset
	return &GraphHandle{asset: asset}
}

// Get returns the live graph published under id.
func (a *Assets) Get(id uint64) (BlendGraph, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	asset, ok := a.live[id]
	if !ok {
		return nil, false
	}
	return asset.graph, true
}

// Len returns the number of resident graphs.
func (a *Assets) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

func (a *Assets) remove(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, id)
}

// ID returns the asset id of the graph, or 0 for a nil handle.
func (h *GraphHandle) ID() uint64 {
	if h == nil {
		return 0
	}
	return h.asset.id
}

// Graph returns the referenced graph, or nil once this handle is released.
func (h *GraphHandle) Graph() BlendGraph {
	if h == nil || h.released.Load() {
		return nil
	}
	return h.asset.graph
}

// RefCount returns the number of unreleased handles to the graph.
func (h *GraphHandle) RefCount() int {
	if h == nil {
		return 0
	}
	return int(h.asset.refs.Load())
}

// Released reports whether this handle has been released.
func (h *GraphHandle) Released() bool {
	return h == nil || h.released.Load()
}

// Clone returns a new handle to the same graph and adds a holder.
//
// Returns:
//   - *GraphHandle: the new handle
//   - error: ErrGraphReleased if this handle was already released
func (h *GraphHandle) Clone() (*GraphHandle, error) {
	if h.Released() {
		return nil, ErrGraphReleased
	}
	h.asset.refs.Add(1)
	return &GraphHandle{asset: h.asset}, nil
}

// Release drops this handle's hold on the graph. The graph leaves its Assets when the
// last holder releases. Releasing a handle twice has no further effect.
//
// Returns:
//   - bool: true if this call released the last holder
func (h *GraphHandle) Release() bool {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return false
	}
	if h.asset.refs.Add(-1) > 0 {
		return false
	}
	if h.asset.assets != nil {
		h.asset.assets.remove(h.asset.id)
	}
	return true
}
