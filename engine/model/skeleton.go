package model

// BoneCount returns the number of bones, or 0 for a nil skeleton.
func (s *Skeleton) BoneCount() int {
	if s == nil {
		return 0
	}
	return len(s.Bones)
}

// BonePath returns the names from the root bone down to and including the bone at index.
// Returns nil for an out-of-range index.
//
// Parameters:
//   - index: the bone index
//
// Returns:
//   - []string: the ordered name segments of the bone's path
func (s *Skeleton) BonePath(index int32) []string {
	if s == nil || index < 0 || int(index) >= len(s.Bones) {
		return nil
	}

	var depth int
	for i := index; i >= 0; i = s.Bones[i].ParentIndex {
		depth++
		if depth > len(s.Bones) {
			// cycle in a hand-built skeleton; refuse rather than loop
			return nil
		}
	}

	path := make([]string, depth)
	for i := index; i >= 0; i = s.Bones[i].ParentIndex {
		depth--
		path[depth] = s.Bones[i].Name
	}
	return path
}

// Children returns, for every bone, the indices of its direct children in ascending order.
//
// Returns:
//   - [][]int32: child indices keyed by parent bone index
func (s *Skeleton) Children() [][]int32 {
	if s == nil {
		return nil
	}
	children := make([][]int32, len(s.Bones))
	for i, bone := range s.Bones {
		if bone.ParentIndex >= 0 && int(bone.ParentIndex) < len(s.Bones) {
			children[bone.ParentIndex] = append(children[bone.ParentIndex], int32(i))
		}
	}
	return children
}

// RestPose returns a copy of every bone's local rest transform.
func (s *Skeleton) RestPose() []Transform {
	if s == nil {
		return nil
	}
	pose := make([]Transform, len(s.Bones))
	for i, bone := range s.Bones {
		pose[i] = bone.LocalTransform
	}
	return pose
}

// NewSkeleton builds a Skeleton from bones whose ParentIndex values are already set,
// filling RootBoneIndices and BoneNameToIndex.
//
// Parameters:
//   - bones: the bones, parents before children
//
// Returns:
//   - *Skeleton: the assembled skeleton
func NewSkeleton(bones []Bone) *Skeleton {
	s := &Skeleton{
		Bones:           bones,
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}
	for i, bone := range bones {
		if bone.ParentIndex < 0 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
		s.BoneNameToIndex[bone.Name] = int32(i)
	}
	return s
}
