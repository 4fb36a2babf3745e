package scene

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"cogentcore.org/core/base/errors"
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
	"github.com/Carmen-Shannon/oxy-mask/engine/rig"
)

// Scene manages a registry of Rigs that share one graph asset store.
// Scenes can be hot-swapped via the Active flag; the Engine only updates active scenes.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently updated by the Engine.
	Active() bool

	// SetActive sets whether this scene is updated by the Engine.
	SetActive(active bool)

	// Assets returns the graph asset store shared by the scene's rigs.
	Assets() *blend.Assets

	// Count returns the number of rigs in the scene.
	//
	// Returns:
	//   - int: count of rigs in the registry
	Count() int

	// Add adds a Rig to the scene. Rigs without an ID are assigned one.
	// Rigs should be built with rig.WithAssets(s.Assets()); a rig publishing to another
	// store is still added, with a warning, and its graphs are not counted by Assets.
	// Panics if r is nil.
	//
	// Parameters:
	//   - r: the Rig to add
	//
	// Returns:
	//   - uint64: the rig ID
	Add(r rig.Rig) uint64

	// Get retrieves a Rig by its ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the rig's unique ID
	//
	// Returns:
	//   - rig.Rig: the rig or nil
	Get(id uint64) rig.Rig

	// Remove removes a Rig from the registry and releases it.
	//
	// Parameters:
	//   - id: the rig's unique ID
	Remove(id uint64)

	// Rigs returns every rig ordered by ID.
	//
	// Returns:
	//   - []rig.Rig: the rigs
	Rigs() []rig.Rig

	// SetTable queues a new mask group table. The next Update rebuilds every rig's graph
	// from it before running setup.
	//
	// Parameters:
	//   - table: the new table
	//   - options: the graph builder options to build with
	SetTable(table *mask.GroupTable, options ...blend.GraphBuilderOption)

	// Update runs one scene step. Queued tables and pending rig setup run serially in ID
	// order, so one rig's setup is never interleaved with another's. Playing rigs then
	// advance and evaluate their poses in parallel on the scene's worker pool.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last step in seconds
	//
	// Returns:
	//   - error: the joined setup errors of rigs that failed this step
	Update(deltaTime float32) error

	// Pose returns the pose a rig computed during the last Update.
	//
	// Parameters:
	//   - id: the rig's unique ID
	//
	// Returns:
	//   - []model.Transform: local transforms indexed by bone, or nil
	Pose(id uint64) []model.Transform

	// Clear removes and releases every rig.
	Clear()

	// Release releases every rig and drops any queued table.
	Release()
}

// pendingTable is a table queued by SetTable.
type pendingTable struct {
	table   *mask.GroupTable
	options []blend.GraphBuilderOption
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	logger *slog.Logger

	registry map[uint64]rig.Rig
	nextID   uint64
	assets   *blend.Assets
	pending  *pendingTable

	// computePool runs the parallel pose phase of Update. Workers persist across steps.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		registry:       make(map[uint64]rig.Rig),
		nextID:         1,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}
	if s.assets == nil {
		s.assets = blend.NewAssets()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("scene", s.name)

	// Queue size of 256 accommodates typical rig counts with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Assets() *blend.Assets {
	return s.assets
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(r rig.Rig) uint64 {
	if r == nil {
		panic("scene: cannot Add a nil Rig")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(r)
}

func (s *scene) addLocked(r rig.Rig) uint64 {
	if r.ID() == 0 {
		r.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	}
	if existing, ok := s.registry[r.ID()]; ok && existing != r {
		panic(fmt.Sprintf("scene: rig ID %d already registered", r.ID()))
	}
	if r.Assets() != s.assets {
		s.logger.Warn("rig uses a separate graph asset store", "rig", r.Name(), "id", r.ID())
	}
	s.registry[r.ID()] = r
	return r.ID()
}

func (s *scene) Get(id uint64) rig.Rig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	r, ok := s.registry[id]
	delete(s.registry, id)
	s.mu.Unlock()

	if ok {
		r.Release()
	}
}

func (s *scene) Rigs() []rig.Rig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rigsLocked()
}

func (s *scene) rigsLocked() []rig.Rig {
	ids := make([]uint64, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]rig.Rig, len(ids))
	for i, id := range ids {
		out[i] = s.registry[id]
	}
	return out
}

func (s *scene) SetTable(table *mask.GroupTable, options ...blend.GraphBuilderOption) {
	if table == nil {
		panic("scene: SetTable requires a group table")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &pendingTable{table: table, options: options}
}

func (s *scene) Update(deltaTime float32) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	rigs := s.rigsLocked()
	s.mu.Unlock()

	// Setup phase (serial): table swaps and first-time graph construction.
	var errs []error
	for _, r := range rigs {
		if pending != nil {
			if err := r.Rebuild(pending.table, pending.options...); err != nil && !errors.Is(err, rig.ErrReleased) {
				errs = append(errs, errors.Log(fmt.Errorf("scene: rebuild rig %d: %w", r.ID(), err)))
			}
		}
		if _, err := r.Update(); err != nil {
			errs = append(errs, errors.Log(fmt.Errorf("scene: set up rig %d: %w", r.ID(), err)))
		}
	}

	// Pose phase (parallel): advance clocks and evaluate. A WaitGroup provides the
	// per-step barrier since pool.Wait() blocks until workers idle-exit.
	var wg sync.WaitGroup
	for i, r := range rigs {
		if r.State() != rig.StatePlaying {
			continue
		}
		wg.Add(1)
		rCap := r
		s.computePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				rCap.Step(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (s *scene) Pose(id uint64) []model.Transform {
	r := s.Get(id)
	if r == nil {
		return nil
	}
	return r.Pose()
}

func (s *scene) Clear() {
	s.mu.Lock()
	rigs := s.rigsLocked()
	s.registry = make(map[uint64]rig.Rig)
	s.mu.Unlock()

	for _, r := range rigs {
		r.Release()
	}
}

func (s *scene) Release() {
	s.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.logger.Debug("scene released")
}
