package animator

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var halfTurnY = [4]float32{0, math32.Sqrt(0.5), 0, math32.Sqrt(0.5)}

func testModel() model.Model {
	skeleton := model.NewSkeleton([]model.Bone{
		{Name: "Body", ParentIndex: -1, LocalTransform: model.IdentityTransform()},
		{Name: "Head", ParentIndex: 0, LocalTransform: model.IdentityTransform()},
		{Name: "Arm", ParentIndex: 0, LocalTransform: model.IdentityTransform()},
	})
	idle := &model.AnimationClip{
		Name:     "idle",
		Duration: 2,
		Channels: []model.AnimationChannel{{
			BoneIndex: 0,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 2, Value: [3]float32{2, 0, 0}},
			},
		}},
	}
	aim := &model.AnimationClip{
		Name:     "aim",
		Duration: 1,
		Channels: []model.AnimationChannel{{
			BoneIndex: 2,
			RotationKeys: []model.QuaternionKeyframe{
				{Time: 0, Value: [4]float32{0, 0, 0, 1}},
				{Time: 1, Value: halfTurnY},
			},
		}},
	}
	return model.NewModel(model.WithName("dummy"), model.WithSkeleton(skeleton), model.WithAnimations(idle, aim))
}

func testTable(t *testing.T) *mask.GroupTable {
	t.Helper()
	table, err := mask.NewGroupTable(
		mask.MaskGroupSpec{Name: "head", Prefix: mask.BonePath{"Body"}, Suffix: mask.BonePath{"Head"}},
		mask.MaskGroupSpec{Name: "arm", Prefix: mask.BonePath{"Body"}, Suffix: mask.BonePath{"Arm"}},
	)
	require.NoError(t, err)
	return table
}

func testGraph(t *testing.T, assets *blend.Assets) *blend.GraphHandle {
	t.Helper()
	g, err := blend.NewGraph(testTable(t), []string{"idle", "aim"}, blend.WithClipGroups("aim", "arm"))
	require.NoError(t, err)
	return assets.Add(g)
}

func TestSampleInterpolates(t *testing.T) {
	a := NewAnimator(WithModel(testModel()))

	pose, ok := a.Sample(0, 0, 1)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{1, 0, 0}, pose.Translation[:], 1e-5)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, pose.Rotation)
	assert.Equal(t, [3]float32{1, 1, 1}, pose.Scale)

	pose, _ = a.Sample(0, 0, 5)
	assert.Equal(t, [3]float32{2, 0, 0}, pose.Translation)
	pose, _ = a.Sample(0, 0, -1)
	assert.Equal(t, [3]float32{0, 0, 0}, pose.Translation)

	pose, ok = a.Sample(1, 2, 0.5)
	require.True(t, ok)
	want := [4]float32{0, math32.Sin(math32.Pi / 8), 0, math32.Cos(math32.Pi / 8)}
	assert.InDeltaSlice(t, want[:], pose.Rotation[:], 1e-4)

	_, ok = a.Sample(0, 1, 0)
	assert.False(t, ok, "idle has no head channel")
	_, ok = a.Sample(9, 0, 0)
	assert.False(t, ok)
}

func TestPlayRequiresClipLeaf(t *testing.T) {
	a := NewAnimator(WithModel(testModel()))
	assert.Nil(t, a.Play(2))
	assert.Nil(t, a.Play(2).Repeat())

	h := testGraph(t, blend.NewAssets())
	a.SetGraph(h)
	g := a.Graph()
	require.NotNil(t, g)

	assert.Nil(t, a.Play(g.Root()))
	assert.Nil(t, a.Play(g.Combine()))

	leaf, _ := g.LeafForClip(1)
	anim := a.Play(leaf)
	require.NotNil(t, anim)
	assert.Equal(t, leaf, anim.Node())
	assert.Equal(t, 1, anim.Clip())
	assert.Zero(t, anim.Elapsed())
	assert.Equal(t, 1, a.PlayingCount())

	got, ok := a.Playing(leaf)
	assert.True(t, ok)
	assert.Same(t, anim, got)
}

func TestAdvanceRepeatWraps(t *testing.T) {
	a := NewAnimator(WithModel(testModel()), WithGraph(testGraph(t, blend.NewAssets())))
	leaf, _ := a.Graph().LeafForClip(0)

	anim := a.Play(leaf).Repeat()
	assert.True(t, anim.Repeating())

	a.Advance(1.5)
	assert.InDelta(t, 1.5, anim.Elapsed(), 1e-5)
	a.Advance(1)
	assert.InDelta(t, 0.5, anim.Elapsed(), 1e-5)
	assert.False(t, anim.Finished())

	anim.SetSpeed(2)
	a.Advance(1)
	assert.InDelta(t, 0.5, anim.Elapsed(), 1e-5)
}

func TestAdvanceOnceClamps(t *testing.T) {
	a := NewAnimator(WithModel(testModel()), WithGraph(testGraph(t, blend.NewAssets())))
	leaf, _ := a.Graph().LeafForClip(1)

	anim := a.Play(leaf)
	a.Advance(0.4)
	assert.False(t, anim.Finished())
	a.Advance(1)
	assert.True(t, anim.Finished())
	assert.Equal(t, float32(1), anim.Elapsed())

	a.Advance(1)
	assert.Equal(t, float32(1), anim.Elapsed())

	anim.Seek(0.25)
	assert.False(t, anim.Finished())
	assert.InDelta(t, 0.25, anim.Elapsed(), 1e-6)
}

func TestAllPlaysStartAtZero(t *testing.T) {
	a := NewAnimator(WithModel(testModel()), WithGraph(testGraph(t, blend.NewAssets())))
	for _, leaf := range a.Graph().Leaves() {
		a.Play(leaf).Repeat()
	}
	a.Advance(0.3)

	// replaying restarts the leaf without adding a second one
	leaf, _ := a.Graph().LeafForClip(0)
	anim := a.Play(leaf)
	assert.Zero(t, anim.Elapsed())
	assert.Equal(t, 2, a.PlayingCount())
}

func TestSetGraphReleasesPrevious(t *testing.T) {
	assets := blend.NewAssets()
	a := NewAnimator(WithModel(testModel()), WithGraph(testGraph(t, assets)))
	first := a.GraphID()
	leaf, _ := a.Graph().LeafForClip(0)
	a.Play(leaf)

	a.SetGraph(testGraph(t, assets))
	assert.Equal(t, 1, assets.Len())
	assert.NotEqual(t, first, a.GraphID())
	assert.Zero(t, a.PlayingCount())

	a.Release()
	assert.Zero(t, assets.Len())
	assert.Nil(t, a.Graph())
	assert.Zero(t, a.GraphID())
}

func TestPose(t *testing.T) {
	m := testModel()
	a := NewAnimator(WithModel(m))

	bones := make([]blend.BoneState, m.Skeleton().BoneCount())
	for i := range bones {
		bones[i] = blend.BoneState{
			ID:    mask.BonePath(m.Skeleton().BonePath(int32(i))).ID(),
			Bound: true,
			Rest:  model.IdentityTransform(),
		}
	}
	out := make([]model.Transform, len(bones))
	assert.False(t, a.Pose(bones, out))

	a.SetGraph(testGraph(t, blend.NewAssets()))
	for _, leaf := range a.Graph().Leaves() {
		a.Play(leaf).Repeat()
	}
	a.Advance(0.5)
	require.True(t, a.Pose(bones, out))

	assert.InDeltaSlice(t, []float32{0.5, 0, 0}, out[0].Translation[:], 1e-5)
	assert.Equal(t, model.IdentityTransform(), out[1])
	want := [4]float32{0, math32.Sin(math32.Pi / 8), 0, math32.Cos(math32.Pi / 8)}
	assert.InDeltaSlice(t, want[:], out[2].Rotation[:], 1e-4)
}
