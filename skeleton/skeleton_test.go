package skeleton

import (
	"math"
	"testing"

	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/mmd"
	"github.com/binzume/mmdmorph/morph"
)

const eps = 0.0001

func near(a, b geom.Vector3) bool {
	return math.Abs(float64(a.X-b.X)) < eps && math.Abs(float64(a.Y-b.Y)) < eps && math.Abs(float64(a.Z-b.Z)) < eps
}

func testSkeleton() *Skeleton {
	doc := mmd.NewDocument()
	doc.Bones = []*mmd.Bone{
		{Name: "center", ParentID: -1},
		{Name: "head", ParentID: 0, Pos: mmd.Vector3{Y: 10}},
		{Name: "hat", ParentID: 1, Pos: mmd.Vector3{Y: 12}},
	}
	return FromDocument(doc)
}

func TestSkeletonLookup(t *testing.T) {
	s := testSkeleton()

	if i, ok := s.FindByName("head"); !ok || i != 1 {
		t.Error("FindByName: ", i, ok)
	}
	if _, ok := s.FindByName("tail"); ok {
		t.Error("FindByName: unknown bone found")
	}
	if s.Bone(-1) != nil || s.Bone(3) != nil {
		t.Error("Bone: out of range must be nil")
	}
	if b := s.Bone(2); b == nil || b.AnimationRotate.W != 1 {
		t.Error("Bone: ", b)
	}

	var nilSkeleton *Skeleton
	if nilSkeleton.Bone(0) != nil || nilSkeleton.GlobalMatrices() != nil {
		t.Error("nil skeleton")
	}
	nilSkeleton.ResetPose()
}

func TestSkeletonPose(t *testing.T) {
	s := testSkeleton()

	pos := s.Positions()
	if !near(pos[2], geom.Vector3{Y: 12}) {
		t.Error("rest: ", pos[2])
	}

	s.Bones[0].AnimationRotate = *geom.NewQuaternion(0, 0, float32(math.Sin(math.Pi/4)), float32(math.Cos(math.Pi/4)))
	s.Bones[0].AnimationTranslate = geom.Vector3{X: 1}
	pos = s.Positions()
	if !near(pos[0], geom.Vector3{X: 1}) {
		t.Error("root: ", pos[0])
	}
	if !near(pos[1], geom.Vector3{X: -9}) {
		t.Error("head: ", pos[1])
	}
	if !near(pos[2], geom.Vector3{X: -11}) {
		t.Error("hat: ", pos[2])
	}

	s.ResetPose()
	pos = s.Positions()
	if !near(pos[1], geom.Vector3{Y: 10}) {
		t.Error("reset: ", pos[1])
	}
}

func TestSkeletonBoneMorph(t *testing.T) {
	s := testSkeleton()
	m := morph.NewManager()
	m.SetMorphWeight(m.AddMorph(&morph.Morph{
		Name: "nod",
		Type: morph.TypeBone,
		Bone: []morph.BoneOffset{{Index: 1, Translation: geom.Vector3{Z: 2}, Rotation: geom.Vector4{W: 1}}},
	}), 1)

	m.ApplyMorphs(s, nil)

	if !near(s.Bones[1].AnimationTranslate, geom.Vector3{Z: 2}) {
		t.Error("translate: ", s.Bones[1].AnimationTranslate)
	}
	if !near(s.Positions()[2], geom.Vector3{Y: 12, Z: 2}) {
		t.Error("child: ", s.Positions()[2])
	}
}

func TestSkeletonParentLoop(t *testing.T) {
	s := New([]*Bone{
		{Name: "a", Parent: 1, Rest: geom.Vector3{X: 1}},
		{Name: "b", Parent: 0, Rest: geom.Vector3{X: 2}},
		{Name: "c", Parent: 2, Rest: geom.Vector3{X: 3}},
	})
	pos := s.Positions()
	if len(pos) != 3 || !near(pos[2], geom.Vector3{X: 3}) {
		t.Error("loop: ", pos)
	}
}
