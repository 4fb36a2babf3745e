package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/rig"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRigs adds initial rigs to the scene.
// Rigs without IDs will be assigned new IDs.
//
// Parameters:
//   - rigs: the rigs to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRigs(rigs ...rig.Rig) SceneBuilderOption {
	return func(s *scene) {
		for _, r := range rigs {
			s.addLocked(r)
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used during the parallel
// pose phase of Update. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithAssets sets the graph asset store. Rigs added to the scene should be built with
// rig.WithAssets(scene.Assets()) so their graphs are tracked together.
//
// Parameters:
//   - assets: the asset store
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAssets(assets *blend.Assets) SceneBuilderOption {
	return func(s *scene) {
		s.assets = assets
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.logger = logger
	}
}
