package blend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	boneBody = iota
	boneHead
	boneRightArm
	boneLeftArm
	boneTail
)

func testBones() []BoneState {
	paths := []string{"Body", "Body/Head", "Body/Right Arm Upper", "Body/Left Arm Upper", "Body/Tail"}
	bones := make([]BoneState, len(paths))
	for i, p := range paths {
		bones[i] = BoneState{
			ID:    mask.ParseBonePath(p).ID(),
			Bound: i != boneLeftArm,
			Rest:  model.IdentityTransform(),
		}
	}
	return bones
}

// channels maps clip index to the bones it animates.
type channels map[int]map[int]model.Transform

func (c channels) sample(_ NodeIndex, clip ClipSpec, bone int) (model.Transform, bool) {
	pose, ok := c[clip.Index][bone]
	return pose, ok
}

func moved(t [3]float32) model.Transform {
	tr := model.IdentityTransform()
	tr.Translation = t
	return tr
}

func TestEvaluateMaskedAdditive(t *testing.T) {
	table := testTable(t)
	g, err := NewGraph(table, []string{"idle", "aim"}, WithClipGroups("aim", "right_arm"))
	require.NoError(t, err)

	half := math32.Sqrt(0.5)
	aimArm := moved([3]float32{0, 0, 2})
	aimArm.Rotation = [4]float32{0, half, 0, half}
	aimArm.Scale = [3]float32{1, 3, 1}

	idleArm := moved([3]float32{0, 1, 0})
	idleArm.Scale = [3]float32{2, 2, 2}

	src := channels{
		0: {
			boneBody:     moved([3]float32{1, 0, 0}),
			boneHead:     moved([3]float32{0, 1, 0}),
			boneRightArm: idleArm,
			boneLeftArm:  moved([3]float32{5, 5, 5}),
			boneTail:     moved([3]float32{7, 7, 7}),
		},
		1: {
			boneHead:     moved([3]float32{0, 0, 9}),
			boneRightArm: aimArm,
		},
	}

	bones := testBones()
	out := make([]model.Transform, len(bones))
	Evaluate(g, bones, src.sample, out)

	// idle alone drives the shared root; aim has no channel for it
	assert.Equal(t, [3]float32{1, 0, 0}, out[boneBody].Translation)

	// aim is masked away from the head group
	assert.Equal(t, [3]float32{0, 1, 0}, out[boneHead].Translation)

	// both clips drive the right arm, aim added on top of idle
	arm := out[boneRightArm]
	assert.Equal(t, [3]float32{0, 1, 2}, arm.Translation)
	assert.InDeltaSlice(t, []float32{0, half, 0, half}, arm.Rotation[:], 1e-5)
	assert.InDeltaSlice(t, []float32{2, 6, 2}, arm.Scale[:], 1e-5)

	// unbound bones keep the rest pose
	assert.Equal(t, model.IdentityTransform(), out[boneLeftArm])

	// bound but outside every group
	assert.Equal(t, model.IdentityTransform(), out[boneTail])
}

func TestEvaluateSingleClipIsExact(t *testing.T) {
	g, err := NewGraph(testTable(t), []string{"idle"})
	require.NoError(t, err)

	bones := testBones()
	bones[boneHead].Rest = moved([3]float32{0, 10, 0})

	src := channels{0: {boneHead: moved([3]float32{0, 11, 0})}}
	out := make([]model.Transform, len(bones))
	Evaluate(g, bones, src.sample, out)

	assert.Equal(t, [3]float32{0, 11, 0}, out[boneHead].Translation)
	assert.Equal(t, [3]float32{0, 0, 0}, out[boneBody].Translation)
}

func TestEvaluateEmptyMaskContributesNothing(t *testing.T) {
	g, err := NewGraph(testTable(t), []string{"idle", "off"}, WithClipMask("off", 0))
	require.NoError(t, err)

	bones := testBones()
	src := channels{1: {boneHead: moved([3]float32{3, 3, 3})}}
	out := make([]model.Transform, len(bones))
	Evaluate(g, bones, src.sample, out)

	assert.Equal(t, model.IdentityTransform(), out[boneHead])
}
