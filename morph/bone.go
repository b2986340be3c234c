package morph

import "github.com/binzume/mmdmorph/geom"

// Bone holds the animated local transform that bone morphs accumulate into.
type Bone struct {
	AnimationTranslate geom.Vector3
	AnimationRotate    geom.Quaternion
}

// ResetAnimation restores the identity transform.
func (b *Bone) ResetAnimation() {
	b.AnimationTranslate = geom.Vector3{}
	b.AnimationRotate = geom.Quaternion{W: 1}
}

// BoneCollection gives bone morphs access to bones by index.
// Bone returns nil when index is out of range.
type BoneCollection interface {
	Bone(index int) *Bone
}

// weightedRotation blends the identity toward r by w (nlerp).
func weightedRotation(r *geom.Vector4, w float32) *geom.Quaternion {
	return geom.NewQuaternion(r.X*w, r.Y*w, r.Z*w, 1-(1-r.W)*w).Normalize()
}
