package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-mask/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor converts glTF animations into model.AnimationClip values.
//
// The boneMapping parameter maps glTF node indices to bone indices of the sorted skeleton, as
// produced by the skeleton extractor. Channels targeting nodes outside the mapping are dropped.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - *model.AnimationClip: the extracted clip with channels ordered by bone index
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error)

	// ExtractAnimationsForSkeleton extracts every animation that animates at least one mapped joint,
	// in document order.
	//
	// Parameters:
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - []*model.AnimationClip: the extracted clips
	//   - error: error if extraction fails
	ExtractAnimationsForSkeleton(boneMapping map[int]int32) ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	// translation, rotation and scale of one bone merge into a single channel
	channelMap := make(map[int32]*model.AnimationChannel)
	var maxTime float32

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil {
			continue
		}
		boneIndex, ok := boneMapping[*ch.Target.Node]
		if !ok {
			continue
		}

		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathRotation, gltfAnimPathScale:
		default:
			// morph target weights
			continue
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := e.parser.ReadScalarAccessor(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		if n := len(times); n > 0 && times[n-1] > maxTime {
			maxTime = times[n-1]
		}

		animCh, exists := channelMap[boneIndex]
		if !exists {
			animCh = &model.AnimationChannel{BoneIndex: boneIndex}
			channelMap[boneIndex] = animCh
		}

		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathScale:
			values, err := e.parser.ReadVec3Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read %s values: %w", name, i, ch.Target.Path, err)
			}
			keys := gltfKeyframes(times, values, sampler.Interpolation, func(t float32, v [3]float32) model.VectorKeyframe {
				return model.VectorKeyframe{Time: t, Value: v}
			})
			if ch.Target.Path == gltfAnimPathTranslation {
				animCh.PositionKeys = keys
			} else {
				animCh.ScaleKeys = keys
			}

		case gltfAnimPathRotation:
			values, err := e.parser.ReadVec4Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read rotation values: %w", name, i, err)
			}
			animCh.RotationKeys = gltfKeyframes(times, values, sampler.Interpolation, func(t float32, v [4]float32) model.QuaternionKeyframe {
				return model.QuaternionKeyframe{Time: t, Value: v}
			})
		}
	}

	channels := make([]model.AnimationChannel, 0, len(channelMap))
	for _, ch := range channelMap {
		channels = append(channels, *ch)
	}
	slices.SortFunc(channels, func(a, b model.AnimationChannel) int {
		return int(a.BoneIndex) - int(b.BoneIndex)
	})

	return &model.AnimationClip{
		Name:     name,
		Duration: maxTime,
		Channels: channels,
	}, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAnimationsForSkeleton(boneMapping map[int]int32) ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	var clips []*model.AnimationClip
	for animIndex := range doc.Animations {
		relevant := slices.ContainsFunc(doc.Animations[animIndex].Channels, func(ch gltfAnimationChannel) bool {
			if ch.Target.Node == nil {
				return false
			}
			_, ok := boneMapping[*ch.Target.Node]
			return ok
		})
		if !relevant {
			continue
		}

		clip, err := e.ExtractAnimation(animIndex, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", animIndex, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// gltfKeyframes pairs sampler times with output values, reshaping them so that linear
// sampling reproduces the sampler's interpolation.
//
// CUBICSPLINE outputs carry an in-tangent, value and out-tangent per key; only the value is kept.
// STEP keys are doubled so each value holds until the next key's time.
//
// Parameters:
//   - times: keyframe times in seconds
//   - values: sampler output values
//   - interpolation: the glTF interpolation mode, LINEAR when empty
//   - key: builds one keyframe
//
// Returns:
//   - []K: the keyframes ordered by time
func gltfKeyframes[V any, K any](times []float32, values []V, interpolation string, key func(float32, V) K) []K {
	if interpolation == gltfInterpolationCubicSpline {
		values = cubicSplineValues(values)
	}

	n := min(len(times), len(values))
	if interpolation != gltfInterpolationStep || n < 2 {
		keys := make([]K, n)
		for i := range keys {
			keys[i] = key(times[i], values[i])
		}
		return keys
	}

	keys := make([]K, 0, 2*n-1)
	keys = append(keys, key(times[0], values[0]))
	for i := 1; i < n; i++ {
		keys = append(keys, key(times[i], values[i-1]), key(times[i], values[i]))
	}
	return keys
}

func cubicSplineValues[V any](triples []V) []V {
	values := make([]V, len(triples)/3)
	for i := range values {
		values[i] = triples[3*i+1]
	}
	return values
}
