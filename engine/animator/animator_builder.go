package animator

import (
	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithModel is an option builder that assigns a Model to the Animator during construction.
// This calls SetModel internally, which indexes the model's clip channels by bone.
//
// Parameters:
//   - m: the Model to associate with this animator
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the model option to an animator
func WithModel(m model.Model) AnimatorBuilderOption {
	return func(a *animator) {
		a.SetModel(m)
	}
}

// WithGraph is an option builder that hands a graph reference to the Animator during construction.
//
// Parameters:
//   - handle: the graph handle the Animator takes ownership of
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the graph option to an animator
func WithGraph(handle *blend.GraphHandle) AnimatorBuilderOption {
	return func(a *animator) {
		a.SetGraph(handle)
	}
}
