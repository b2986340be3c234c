// Package skeleton builds the bone hierarchy of an MMD model and exposes it
// to bone morphs.
package skeleton

import (
	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/mmd"
	"github.com/binzume/mmdmorph/morph"
)

type Bone struct {
	morph.Bone
	Name   string
	Parent int
	// Rest position in model space.
	Rest geom.Vector3
}

type Skeleton struct {
	Bones  []*Bone
	byName map[string]int
}

func New(bones []*Bone) *Skeleton {
	s := &Skeleton{Bones: bones, byName: map[string]int{}}
	for i, b := range bones {
		if _, exists := s.byName[b.Name]; !exists {
			s.byName[b.Name] = i
		}
	}
	s.ResetPose()
	return s
}

// FromDocument builds a skeleton from the bones of a PMX/PMD document.
func FromDocument(doc *mmd.Document) *Skeleton {
	bones := make([]*Bone, len(doc.Bones))
	for i, b := range doc.Bones {
		bones[i] = &Bone{
			Name:   b.Name,
			Parent: b.ParentID,
			Rest:   geom.Vector3{X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z},
		}
	}
	return New(bones)
}

// Bone implements morph.BoneCollection.
func (s *Skeleton) Bone(index int) *morph.Bone {
	if s == nil || index < 0 || index >= len(s.Bones) {
		return nil
	}
	return &s.Bones[index].Bone
}

func (s *Skeleton) FindByName(name string) (int, bool) {
	if s == nil {
		return -1, false
	}
	i, ok := s.byName[name]
	return i, ok
}

// ResetPose clears the animated transform of every bone.
func (s *Skeleton) ResetPose() {
	if s == nil {
		return
	}
	for _, b := range s.Bones {
		b.ResetAnimation()
	}
}

func (s *Skeleton) parent(i int) int {
	p := s.Bones[i].Parent
	if p < 0 || p >= len(s.Bones) || p == i {
		return -1
	}
	return p
}

// GlobalMatrices returns the model-space transform of each bone in the current pose.
// A bone whose parent chain loops is treated as a root.
func (s *Skeleton) GlobalMatrices() []*geom.Matrix4 {
	if s == nil {
		return nil
	}
	result := make([]*geom.Matrix4, len(s.Bones))
	visiting := make([]bool, len(s.Bones))

	var resolve func(i int) *geom.Matrix4
	resolve = func(i int) *geom.Matrix4 {
		if result[i] != nil {
			return result[i]
		}
		b := s.Bones[i]
		visiting[i] = true
		parent := geom.NewMatrix4()
		offset := b.Rest
		if p := s.parent(i); p >= 0 && !visiting[p] {
			parent = resolve(p)
			offset = *b.Rest.Sub(&s.Bones[p].Rest)
		}
		visiting[i] = false

		local := geom.NewRTMatrix4(&b.AnimationRotate, offset.Add(&b.AnimationTranslate))
		result[i] = parent.Mul(local)
		return result[i]
	}

	for i := range s.Bones {
		resolve(i)
	}
	return result
}

// Positions returns the model-space joint position of each bone in the current pose.
func (s *Skeleton) Positions() []geom.Vector3 {
	mats := s.GlobalMatrices()
	pos := make([]geom.Vector3, len(mats))
	for i, m := range mats {
		pos[i] = *m.Translation()
	}
	return pos
}
