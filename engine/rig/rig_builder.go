package rig

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
)

// RigBuilderOption is a functional option for configuring a Rig during construction.
type RigBuilderOption func(*rig)

// WithID sets the ID of the Rig.
//
// Parameters:
//   - id: unique identifier for the Rig
//
// Returns:
//   - RigBuilderOption: functional option to set the ID
func WithID(id uint64) RigBuilderOption {
	return func(r *rig) {
		r.id = id
	}
}

// WithName sets the name the Rig logs under.
//
// Parameters:
//   - name: the rig name
//
// Returns:
//   - RigBuilderOption: functional option to set the name
func WithName(name string) RigBuilderOption {
	return func(r *rig) {
		r.name = name
	}
}

// WithAssets sets the store the Rig publishes its graphs to. Rigs without one get a
// private store.
//
// Parameters:
//   - assets: the graph asset store
//
// Returns:
//   - RigBuilderOption: functional option to set the asset store
func WithAssets(assets *blend.Assets) RigBuilderOption {
	return func(r *rig) {
		r.assets = assets
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RigBuilderOption: functional option to set the logger
func WithLogger(logger *slog.Logger) RigBuilderOption {
	return func(r *rig) {
		r.logger = logger
	}
}

// WithGraphOptions sets the options every graph of the Rig is built with, such as the mask
// policy and per-clip masks.
//
// Parameters:
//   - options: the graph builder options
//
// Returns:
//   - RigBuilderOption: functional option to set the graph options
func WithGraphOptions(options ...blend.GraphBuilderOption) RigBuilderOption {
	return func(r *rig) {
		r.graphOptions = options
	}
}
