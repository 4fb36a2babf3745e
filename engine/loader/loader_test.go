package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDoc assembles a small glTF document with one float buffer.
type testDoc struct {
	bin         []byte
	bufferViews []map[string]any
	accessors   []map[string]any
}

func (d *testDoc) floats(accessorType string, count int, values ...float32) int {
	offset := len(d.bin)
	for _, v := range values {
		d.bin = binary.LittleEndian.AppendUint32(d.bin, math32.Float32bits(v))
	}
	d.bufferViews = append(d.bufferViews, map[string]any{
		"buffer": 0, "byteOffset": offset, "byteLength": len(d.bin) - offset,
	})
	d.accessors = append(d.accessors, map[string]any{
		"bufferView": len(d.bufferViews) - 1, "componentType": gltfComponentTypeFloat,
		"count": count, "type": accessorType,
	})
	return len(d.accessors) - 1
}

// humanoidDoc returns a document whose skin lists joints out of hierarchy order:
//
//	Hips -> Spine -> (unnamed)
//	Hips -> Leg
//
// Node 4 is the skinned mesh node and is not a joint.
func humanoidDoc(embedBuffer bool) (map[string]any, []byte) {
	d := &testDoc{}
	half := math32.Sqrt(0.5)

	times01 := d.floats(gltfAccessorTypeScalar, 2, 0, 1)
	spineRot := d.floats(gltfAccessorTypeVec4, 2, 0, 0, 0, 1, 0, half, 0, half)
	times012 := d.floats(gltfAccessorTypeScalar, 3, 0, 1, 2)
	legStep := d.floats(gltfAccessorTypeVec3, 3, 0, 0, 0, 1, 0, 0, 2, 0, 0)
	meshScale := d.floats(gltfAccessorTypeVec3, 2, 1, 1, 1, 2, 2, 2)

	buffer := map[string]any{"byteLength": len(d.bin)}
	if embedBuffer {
		buffer["uri"] = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(d.bin)
	}

	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"name": "Humanoid", "nodes": []int{0, 4}}},
		"nodes": []any{
			map[string]any{"name": "Hips", "children": []int{1, 3}, "translation": []float32{0, 1, 0}},
			map[string]any{"name": "Spine", "children": []int{2}},
			map[string]any{},
			map[string]any{"name": "Leg", "matrix": []float32{
				0, 0, -1, 0,
				0, 1, 0, 0,
				1, 0, 0, 0,
				0.5, -1, 0, 1,
			}},
			map[string]any{"name": "Body", "mesh": 0, "skin": 0},
		},
		"skins": []any{map[string]any{"joints": []int{2, 0, 3, 1}}},
		"animations": []any{
			map[string]any{
				"name": "wave",
				"channels": []any{
					map[string]any{"sampler": 0, "target": map[string]any{"node": 1, "path": "rotation"}},
					map[string]any{"sampler": 1, "target": map[string]any{"node": 3, "path": "translation"}},
					map[string]any{"sampler": 2, "target": map[string]any{"node": 4, "path": "scale"}},
				},
				"samplers": []any{
					map[string]any{"input": times01, "output": spineRot},
					map[string]any{"input": times012, "output": legStep, "interpolation": "STEP"},
					map[string]any{"input": times01, "output": meshScale},
				},
			},
			map[string]any{
				"name": "pulse",
				"channels": []any{
					map[string]any{"sampler": 0, "target": map[string]any{"node": 4, "path": "scale"}},
				},
				"samplers": []any{map[string]any{"input": times01, "output": meshScale}},
			},
		},
		"buffers":     []any{buffer},
		"bufferViews": d.bufferViews,
		"accessors":   d.accessors,
	}
	return doc, d.bin
}

func writeGLTF(t *testing.T) string {
	t.Helper()
	doc, _ := humanoidDoc(true)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "humanoid.gltf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func buildGLB(t *testing.T) []byte {
	t.Helper()
	doc, bin := humanoidDoc(false)
	jsonData, err := json.Marshal(doc)
	require.NoError(t, err)

	pad := func(b []byte, fill byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, fill)
		}
		return b
	}
	jsonData = pad(jsonData, ' ')
	bin = pad(bin, 0)

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON}))
	out.Write(jsonData)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN}))
	out.Write(bin)
	return out.Bytes()
}

func assertHumanoid(t *testing.T, m model.Model) {
	t.Helper()
	assert.Equal(t, "Humanoid", m.Name())
	require.True(t, m.Skinned())

	skeleton := m.Skeleton()
	require.Equal(t, 4, skeleton.BoneCount())
	for i, bone := range skeleton.Bones {
		assert.Less(t, bone.ParentIndex, int32(i), "bone %s precedes its parent", bone.Name)
	}
	assert.Equal(t, []int32{0}, skeleton.RootBoneIndices)

	leaf, ok := skeleton.BoneNameToIndex["bone_0"]
	require.True(t, ok, "unnamed joint takes its skin index")
	assert.Equal(t, []string{"Hips", "Spine", "bone_0"}, skeleton.BonePath(leaf))

	hips := skeleton.Bones[skeleton.BoneNameToIndex["Hips"]]
	assert.Equal(t, [3]float32{0, 1, 0}, hips.LocalTransform.Translation)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, hips.LocalTransform.Rotation)

	leg := skeleton.Bones[skeleton.BoneNameToIndex["Leg"]].LocalTransform
	assert.Equal(t, [3]float32{0.5, -1, 0}, leg.Translation)
	assert.InDelta(t, math32.Sqrt(0.5), leg.Rotation[1], 1e-5)
	assert.InDelta(t, math32.Sqrt(0.5), leg.Rotation[3], 1e-5)
	assert.InDelta(t, 1, leg.Scale[0], 1e-5)

	require.Equal(t, []string{"wave"}, m.AnimationNames(), "clips that never touch a joint are skipped")
	wave := m.Animations()[0]
	assert.Equal(t, float32(2), wave.Duration)
	require.Len(t, wave.Channels, 2)
	assert.Less(t, wave.Channels[0].BoneIndex, wave.Channels[1].BoneIndex)

	for _, ch := range wave.Channels {
		switch skeleton.Bones[ch.BoneIndex].Name {
		case "Spine":
			require.Len(t, ch.RotationKeys, 2)
			assert.Equal(t, float32(1), ch.RotationKeys[1].Time)
			assert.Empty(t, ch.PositionKeys)
		case "Leg":
			// STEP keys hold each value until the next key
			assert.Equal(t, []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 1, Value: [3]float32{0, 0, 0}},
				{Time: 1, Value: [3]float32{1, 0, 0}},
				{Time: 2, Value: [3]float32{1, 0, 0}},
				{Time: 2, Value: [3]float32{2, 0, 0}},
			}, ch.PositionKeys)
		default:
			t.Errorf("unexpected channel for bone %d", ch.BoneIndex)
		}
	}
}

func TestLoadGLTF(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	path := writeGLTF(t)

	m, err := l.Load(path)
	require.NoError(t, err)
	assertHumanoid(t, m)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, m, again, "second load is served from the cache")
	assert.Same(t, m, l.Get(path))
	assert.Len(t, l.Models(), 1)

	assert.True(t, l.Remove(path))
	assert.False(t, l.Remove(path))
	assert.Nil(t, l.Get(path))
}

func TestLoadReaderGLB(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	m, err := l.LoadReader("humanoid", bytes.NewReader(buildGLB(t)), true)
	require.NoError(t, err)
	assertHumanoid(t, m)
	assert.Same(t, m, l.Get("humanoid"))
}

func TestLoadGLBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "humanoid.glb")
	require.NoError(t, os.WriteFile(path, buildGLB(t), 0o644))

	m, err := NewLoader(BackendTypeGLTF).Load(path)
	require.NoError(t, err)
	assertHumanoid(t, m)
}

func TestLoadStaticDocument(t *testing.T) {
	doc := `{"asset":{"version":"2.0"},"nodes":[{"name":"Crate"}]}`

	m, err := NewLoader(BackendTypeGLTF).LoadReader("crate", bytes.NewReader([]byte(doc)), false)
	require.NoError(t, err)
	assert.Equal(t, "crate", m.Name())
	assert.False(t, m.Skinned())
	assert.Zero(t, m.Skeleton().BoneCount())
	assert.Zero(t, m.AnimationCount())
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load(filepath.Join(t.TempDir(), "rig.fbx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.LoadReader("v1", bytes.NewReader([]byte(`{"asset":{"version":"1.0"}}`)), false)
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = l.LoadReader("junk", bytes.NewReader([]byte("not a glb file")), true)
	assert.ErrorIs(t, err, ErrInvalidGLB)

	short := `{"asset":{"version":"2.0"},"buffers":[{"byteLength":64,"uri":"data:application/octet-stream;base64,AAAA"}]}`
	_, err = l.LoadReader("short", bytes.NewReader([]byte(short)), false)
	assert.ErrorIs(t, err, ErrBufferSizeMismatch)

	assert.Empty(t, l.Models(), "failed loads are not cached")
}

func TestLoadKeepsNodesBetweenJoints(t *testing.T) {
	d := &testDoc{}
	times := d.floats(gltfAccessorTypeScalar, 2, 0, 1)
	lift := d.floats(gltfAccessorTypeVec3, 2, 0, 0.2, 0, 0, 0.4, 0)

	doc := map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{
			map[string]any{"name": "Body", "children": []int{1}, "translation": []float32{0, 1, 0}},
			map[string]any{"name": "Socket", "children": []int{2}, "translation": []float32{0, 0.5, 0}},
			map[string]any{"name": "Head", "translation": []float32{0, 0.1, 0}},
			map[string]any{"name": "Mesh", "mesh": 0, "skin": 0},
		},
		"skins": []any{map[string]any{"joints": []int{0, 2}}},
		"animations": []any{map[string]any{
			"name":     "nod",
			"channels": []any{map[string]any{"sampler": 0, "target": map[string]any{"node": 1, "path": "translation"}}},
			"samplers": []any{map[string]any{"input": times, "output": lift}},
		}},
		"buffers": []any{map[string]any{
			"byteLength": len(d.bin),
			"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(d.bin),
		}},
		"bufferViews": d.bufferViews,
		"accessors":   d.accessors,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	m, err := NewLoader(BackendTypeGLTF).LoadReader("socketed", bytes.NewReader(data), false)
	require.NoError(t, err)

	skeleton := m.Skeleton()
	require.Equal(t, 3, skeleton.BoneCount())
	assert.Equal(t, []int32{0}, skeleton.RootBoneIndices)

	head, ok := skeleton.BoneNameToIndex["Head"]
	require.True(t, ok)
	path := skeleton.BonePath(head)
	assert.Equal(t, []string{"Body", "Socket", "Head"}, path)
	assert.Equal(t, mask.ParseBonePath("Body/Socket/Head").ID(), mask.BonePath(path).ID())

	socket, ok := skeleton.BoneNameToIndex["Socket"]
	require.True(t, ok)
	assert.Equal(t, [3]float32{0, 0.5, 0}, skeleton.Bones[socket].LocalTransform.Translation)
	assert.Equal(t, socket, skeleton.Bones[head].ParentIndex)

	require.Equal(t, []string{"nod"}, m.AnimationNames(), "the intermediate node is animatable")
	require.Len(t, m.Animations()[0].Channels, 1)
	assert.Equal(t, socket, m.Animations()[0].Channels[0].BoneIndex)
}

func TestCubicSplineKeepsValues(t *testing.T) {
	times := []float32{0, 1}
	triples := [][3]float32{{9, 9, 9}, {1, 0, 0}, {9, 9, 9}, {9, 9, 9}, {2, 0, 0}, {9, 9, 9}}

	keys := gltfKeyframes(times, triples, gltfInterpolationCubicSpline, func(t float32, v [3]float32) model.VectorKeyframe {
		return model.VectorKeyframe{Time: t, Value: v}
	})
	assert.Equal(t, []model.VectorKeyframe{
		{Time: 0, Value: [3]float32{1, 0, 0}},
		{Time: 1, Value: [3]float32{2, 0, 0}},
	}, keys)
}

func TestSortBonesBreaksCycles(t *testing.T) {
	bones := []model.Bone{
		{Name: "a", ParentIndex: 1},
		{Name: "b", ParentIndex: 0},
		{Name: "root", ParentIndex: -1},
	}

	sorted, oldToNew := gltfSortBones(bones)
	require.Len(t, sorted, 3)
	assert.Equal(t, int32(0), oldToNew[2])
	for i, bone := range sorted {
		assert.Less(t, bone.ParentIndex, int32(i))
	}
}
