package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-mask/common"
	"github.com/Carmen-Shannon/oxy-mask/engine/model"
	"github.com/chewxy/math32"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor converts a glTF skin into a model.Skeleton whose bones are ordered parents first.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton extracts the skeleton of a skin together with the mapping from glTF
	// node index to bone index in the sorted skeleton. Non-joint nodes sitting between two
	// joints are kept as bones; nodes above the topmost joints are not.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//
	// Returns:
	//   - *model.Skeleton: the extracted skeleton
	//   - map[int]int32: joint or intermediate node index to bone index
	//   - error: error if extraction fails
	ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]int32, error)

	// FindSkin returns the skin bound by the first skinned node, 0 when skins exist but no node
	// references one, and -1 for a document without skins.
	FindSkin() int
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) FindSkin() int {
	doc := e.parser.Document()
	if doc == nil || len(doc.Skins) == 0 {
		return -1
	}
	for _, node := range doc.Nodes {
		if node.Skin != nil && *node.Skin >= 0 && *node.Skin < len(doc.Skins) {
			return *node.Skin
		}
	}
	return 0
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]int32, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, fmt.Errorf("no document loaded")
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}

	skin := &doc.Skins[skinIndex]

	jointOf := make(map[int]int32, len(skin.Joints))
	bones := make([]model.Bone, len(skin.Joints))
	for i, nodeIndex := range skin.Joints {
		if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, nodeIndex)
		}
		node := &doc.Nodes[nodeIndex]
		bones[i] = model.Bone{
			Name:           common.Coalesce(node.Name, fmt.Sprintf("bone_%d", i)),
			ParentIndex:    -1,
			LocalTransform: gltfNodeTransform(node),
		}
		jointOf[nodeIndex] = int32(i)
	}

	parentOf := gltfParentNodes(doc.Nodes)

	// non-joint nodes between two joints become bones so their transforms stay in the chain
	boneOf := make(map[int]int32, len(jointOf))
	for nodeIndex, bone := range jointOf {
		boneOf[nodeIndex] = bone
	}
	var between []int
	for _, nodeIndex := range skin.Joints {
		var chain []int
		for cur, steps := parentOf[nodeIndex], 0; cur >= 0 && steps < len(doc.Nodes); cur, steps = parentOf[cur], steps+1 {
			if _, ok := jointOf[cur]; ok {
				between = append(between, chain...)
				break
			}
			chain = append(chain, cur)
		}
	}
	slices.Sort(between)
	for _, nodeIndex := range slices.Compact(between) {
		node := &doc.Nodes[nodeIndex]
		boneOf[nodeIndex] = int32(len(bones))
		bones = append(bones, model.Bone{
			Name:           common.Coalesce(node.Name, fmt.Sprintf("node_%d", nodeIndex)),
			ParentIndex:    -1,
			LocalTransform: gltfNodeTransform(node),
		})
	}

	for nodeIndex, bone := range boneOf {
		if parent := parentOf[nodeIndex]; parent >= 0 {
			if p, ok := boneOf[parent]; ok && p != bone {
				bones[bone].ParentIndex = p
			}
		}
	}

	sorted, oldToNew := gltfSortBones(bones)

	nodeToBone := make(map[int]int32, len(boneOf))
	for nodeIndex, old := range boneOf {
		nodeToBone[nodeIndex] = oldToNew[old]
	}

	return model.NewSkeleton(sorted), nodeToBone, nil
}

// gltfParentNodes maps every node index to the node listing it as a child, or -1 for a scene root.
// A node claimed by several parents keeps the first.
func gltfParentNodes(nodes []gltfNode) []int {
	parentOf := make([]int, len(nodes))
	for i := range parentOf {
		parentOf[i] = -1
	}
	for nodeIndex, node := range nodes {
		for _, child := range node.Children {
			if child >= 0 && child < len(nodes) && child != nodeIndex && parentOf[child] < 0 {
				parentOf[child] = nodeIndex
			}
		}
	}
	return parentOf
}

// gltfSortBones orders bones breadth-first from the roots so parents precede children.
// Bones unreachable from a root (a parent cycle) are appended as roots.
//
// Parameters:
//   - bones: bones in skin joint order with parent indices in that order
//
// Returns:
//   - []model.Bone: the reordered bones with remapped parent indices
//   - []int32: old bone index to new bone index
func gltfSortBones(bones []model.Bone) ([]model.Bone, []int32) {
	children := make([][]int32, len(bones))
	queue := make([]int32, 0, len(bones))
	for i, bone := range bones {
		if bone.ParentIndex < 0 {
			queue = append(queue, int32(i))
			continue
		}
		children[bone.ParentIndex] = append(children[bone.ParentIndex], int32(i))
	}

	oldToNew := make([]int32, len(bones))
	for i := range oldToNew {
		oldToNew[i] = -1
	}

	order := make([]int32, 0, len(bones))
	visit := func(start int32) {
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			old := queue[0]
			queue = queue[1:]
			if oldToNew[old] >= 0 {
				continue
			}
			oldToNew[old] = int32(len(order))
			order = append(order, old)
			queue = append(queue, children[old]...)
		}
	}

	roots := append([]int32(nil), queue...)
	for _, root := range roots {
		visit(root)
	}
	for i := range bones {
		if oldToNew[i] < 0 {
			bones[i].ParentIndex = -1
			visit(int32(i))
		}
	}

	sorted := make([]model.Bone, len(bones))
	for newIndex, old := range order {
		bone := bones[old]
		if bone.ParentIndex >= 0 {
			bone.ParentIndex = oldToNew[bone.ParentIndex]
		}
		sorted[newIndex] = bone
	}
	return sorted, oldToNew
}

// gltfNodeTransform returns the node's local rest transform from its matrix or TRS fields.
func gltfNodeTransform(node *gltfNode) model.Transform {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(*node.Matrix)
	}

	transform := model.IdentityTransform()
	if node.Translation != nil {
		transform.Translation = *node.Translation
	}
	if node.Rotation != nil {
		transform.Rotation = common.QuatNormalize(*node.Rotation)
	}
	if node.Scale != nil {
		transform.Scale = *node.Scale
	}
	return transform
}

// gltfDecomposeMatrix splits a column-major matrix without shear into translation, rotation and scale.
func gltfDecomposeMatrix(m [16]float32) model.Transform {
	var t model.Transform

	t.Translation = [3]float32{m[12], m[13], m[14]}

	sx := math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])
	t.Scale = [3]float32{sx, sy, sz}

	if sx < 0.0001 {
		sx = 1
	}
	if sy < 0.0001 {
		sy = 1
	}
	if sz < 0.0001 {
		sz = 1
	}

	// row-major rotation: column j of m becomes column j of r
	r := [9]float32{
		m[0] / sx, m[4] / sy, m[8] / sz,
		m[1] / sx, m[5] / sy, m[9] / sz,
		m[2] / sx, m[6] / sy, m[10] / sz,
	}
	t.Rotation = gltfMatrixToQuaternion(r)
	return t
}

// gltfMatrixToQuaternion converts a row-major 3x3 rotation matrix to a quaternion (x, y, z, w).
func gltfMatrixToQuaternion(m [9]float32) [4]float32 {
	r00, r01, r02 := m[0], m[1], m[2]
	r10, r11, r12 := m[3], m[4], m[5]
	r20, r21, r22 := m[6], m[7], m[8]

	var x, y, z, w float32
	switch trace := r00 + r11 + r22; {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		w = 0.25 * s
		x = (r21 - r12) / s
		y = (r02 - r20) / s
		z = (r10 - r01) / s
	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		w = (r21 - r12) / s
		x = 0.25 * s
		y = (r01 + r10) / s
		z = (r02 + r20) / s
	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		w = (r02 - r20) / s
		x = (r01 + r10) / s
		y = 0.25 * s
		z = (r12 + r21) / s
	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		w = (r10 - r01) / s
		x = (r02 + r20) / s
		y = (r12 + r21) / s
		z = 0.25 * s
	}
	return common.QuatNormalize([4]float32{x, y, z, w})
}
