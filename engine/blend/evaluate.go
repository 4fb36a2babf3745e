package blend

import (
	"github.com/Carmen-Shannon/oxy-mask/common"
	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// BoneState is the per-bone input to Evaluate.
type BoneState struct {
	// ID is the bone's path identifier.
	ID mask.BoneID

	// Bound reports whether the bone still has an animation-target binding.
	Bound bool

	// Rest is the bone's local rest transform.
	Rest model.Transform
}

// SampleFunc returns the local transform the clip of leaf produces for bone at the leaf's
// current time. It returns false when the clip has no channel for the bone.
type SampleFunc func(leaf NodeIndex, clip ClipSpec, bone int) (model.Transform, bool)

// leafInput is a leaf resolved once per Evaluate call.
type leafInput struct {
	index  NodeIndex
	clip   ClipSpec
	weight float32
}

// Evaluate computes the combined local pose of every bone into out, which must be at least
// len(bones) long.
//
// Unbound bones keep their rest pose. For a bound bone, a leaf contributes when its mask
// intersects the bone's group membership and sample reports a channel. The first
// contribution replaces the rest pose; every later one is added as its difference from the
// rest pose, so a bone driven by a single clip takes exactly that clip's pose.
//
// Parameters:
//   - g: the blend graph
//   - bones: the bones to evaluate, indexed like out
//   - sample: the clip sampler
//   - out: receives the combined local transforms
func Evaluate(g BlendGraph, bones []BoneState, sample SampleFunc, out []model.Transform) {
	combineWeight := float32(1)
	if n, ok := g.Node(g.Combine()); ok {
		combineWeight = n.Weight
	}

	leafIdx := g.Leaves()
	leaves := make([]leafInput, 0, len(leafIdx))
	for _, idx := range leafIdx {
		n, ok := g.Node(idx)
		if !ok || n.Clip.Mask.IsEmpty() {
			continue
		}
		leaves = append(leaves, leafInput{index: idx, clip: n.Clip, weight: n.Weight * combineWeight})
	}

	table := g.Table()
	for b, bone := range bones {
		out[b] = bone.Rest
		if !bone.Bound {
			continue
		}

		membership := table.Membership(bone.ID)
		if membership.IsEmpty() {
			continue
		}

		first := true
		for _, leaf := range leaves {
			if !leaf.clip.Mask.Intersects(membership) {
				continue
			}
			pose, ok := sample(leaf.index, leaf.clip, b)
			if !ok {
				continue
			}
			if first {
				out[b] = replace(bone.Rest, pose, leaf.weight)
				first = false
				continue
			}
			out[b] = accumulate(out[b], bone.Rest, pose, leaf.weight)
		}
		if !first {
			out[b].Rotation = common.QuatNormalize(out[b].Rotation)
		}
	}
}

// replace moves rest toward pose by weight.
func replace(rest, pose model.Transform, weight float32) model.Transform {
	return model.Transform{
		Translation: common.Lerp3(rest.Translation, pose.Translation, weight),
		Rotation:    common.QuatSlerp(rest.Rotation, pose.Rotation, weight),
		Scale:       common.Lerp3(rest.Scale, pose.Scale, weight),
	}
}

// accumulate adds pose's difference from rest onto acc, scaled by weight.
func accumulate(acc, rest, pose model.Transform, weight float32) model.Transform {
	deltaT := common.Scale3(common.Sub3(pose.Translation, rest.Translation), weight)

	deltaR := common.QuatMul(common.QuatConjugate(rest.Rotation), pose.Rotation)
	deltaR = common.QuatSlerp(common.QuatIdentity(), deltaR, weight)

	deltaS := common.Lerp3([3]float32{1, 1, 1}, common.Ratio3(pose.Scale, rest.Scale), weight)

	return model.Transform{
		Translation: common.Add3(acc.Translation, deltaT),
		Rotation:    common.QuatMul(acc.Rotation, deltaR),
		Scale:       common.Mul3(acc.Scale, deltaS),
	}
}
