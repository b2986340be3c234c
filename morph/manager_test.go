package morph

import (
	"math"
	"testing"

	"github.com/binzume/mmdmorph/geom"
)

const eps = 0.00001

type testBones []*Bone

func (b testBones) Bone(i int) *Bone {
	if i < 0 || i >= len(b) {
		return nil
	}
	return b[i]
}

func newTestBones(n int) testBones {
	bones := make(testBones, n)
	for i := range bones {
		bones[i] = &Bone{}
		bones[i].ResetAnimation()
	}
	return bones
}

func vertexMorph(name string, index uint32, offset geom.Vector3) *Morph {
	m := NewMorph(name, TypeVertex)
	m.Vertex = []VertexOffset{{Index: index, Offset: offset}}
	return m
}

func groupMorph(name string, subs ...GroupOffset) *Morph {
	m := NewMorph(name, TypeGroup)
	m.Group = subs
	return m
}

func newTestManager(vertexes, materials int) *Manager {
	m := NewManager()
	m.SetVertexCount(vertexes)
	m.SetMaterialCount(materials)
	return m
}

func TestManagerRegistration(t *testing.T) {
	m := NewManager()
	first := m.AddMorph(NewMorph("Smile", TypeVertex))
	m.AddMorph(NewMorph("Blink", TypeVertex))
	second := m.AddMorph(NewMorph("Smile", TypeBone))

	if first != 0 || second != 2 || m.MorphCount() != 3 {
		t.Error("indexes: ", first, second, m.MorphCount())
	}
	if i, ok := m.FindMorphByName("Smile"); !ok || i != second {
		t.Error("duplicate name should resolve to the latest morph: ", i, ok)
	}
	if morph, ok := m.Morph(first); !ok || morph.Type != TypeVertex {
		t.Error("first Smile should stay reachable by index")
	}
	if _, ok := m.FindMorphByName("Angry"); ok {
		t.Error("unknown name should not be found")
	}
	if _, ok := m.Morph(3); ok {
		t.Error("out of range index should not be found")
	}
	if _, ok := m.Morph(-1); ok {
		t.Error("negative index should not be found")
	}
}

func TestManagerWeights(t *testing.T) {
	m := NewManager()
	m.AddMorph(NewMorph("a", TypeVertex))
	m.AddMorph(NewMorph("b", TypeVertex))

	m.SetMorphWeight(1, 0.5)
	m.SetMorphWeight(5, 1)
	if m.MorphWeight(1) != 0.5 || m.MorphWeight(0) != 0 {
		t.Error("SetMorphWeight()")
	}
	if m.MorphWeight(5) != 0 {
		t.Error("out of range weight should be 0")
	}
	if !m.SetMorphWeightByName("a", 2) || m.MorphWeight(0) != 2 {
		t.Error("SetMorphWeightByName()")
	}
	if m.SetMorphWeightByName("c", 1) {
		t.Error("unknown name should report false")
	}

	m.ResetAllWeights()
	for i := 0; i < m.MorphCount(); i++ {
		if m.MorphWeight(i) != 0 {
			t.Error("ResetAllWeights()", i)
		}
	}
}

func TestResetAllWeightsKeepsResults(t *testing.T) {
	m := newTestManager(4, 0)
	uv := NewMorph("uv", TypeUV)
	uv.UV = []UVOffset{{Index: 0, Offset: geom.Vector4{X: 1}}}
	uv.Weight = 1
	m.AddMorph(uv)

	m.ApplyMorphs(nil, nil)
	m.ResetAllWeights()
	if m.UVDeltas()[0].X != 1 {
		t.Error("results should survive ResetAllWeights until the next pass")
	}
	m.ApplyMorphs(nil, nil)
	if m.UVDeltas()[0].X != 0 {
		t.Error("results should be cleared by the next pass")
	}
}

func TestApplyVertexMorph(t *testing.T) {
	m := newTestManager(3, 0)
	i := m.AddMorph(vertexMorph("v", 1, geom.Vector3{X: 1, Y: 2, Z: 3}))
	positions := []geom.Vector3{{}, {X: 1, Y: 1, Z: 1}, {}}

	m.SetMorphWeight(i, 0.5)
	m.ApplyMorphs(nil, positions)
	if positions[1] != (geom.Vector3{X: 1.5, Y: 2, Z: 2.5}) {
		t.Error("vertex morph: ", positions[1])
	}
	if positions[0] != (geom.Vector3{}) || positions[2] != (geom.Vector3{}) {
		t.Error("untouched vertexes moved: ", positions)
	}

	m.SetMorphWeight(i, -0.5)
	m.ApplyMorphs(nil, positions)
	if positions[1].Sub(&geom.Vector3{X: 1, Y: 1, Z: 1}).Len() > eps {
		t.Error("negative weight should invert the offset: ", positions[1])
	}
}

func TestApplyBelowEpsilon(t *testing.T) {
	m := newTestManager(2, 1)
	v := m.AddMorph(vertexMorph("v", 0, geom.Vector3{X: 1}))
	mat := NewMorph("m", TypeMaterial)
	mat.Material = []MaterialOffset{*uniformOffset(MaterialAdditive, 10)}
	mi := m.AddMorph(mat)

	for _, w := range []float32{0, 0.0009, -0.0009, 0.001, -0.001} {
		positions := []geom.Vector3{{}, {}}
		m.SetMorphWeight(v, w)
		m.SetMorphWeight(mi, w)
		m.ApplyMorphs(nil, positions)
		if positions[0] != (geom.Vector3{}) {
			t.Error("vertex changed at weight ", w)
		}
		if !m.MaterialResults()[0].IsIdentity() {
			t.Error("material changed at weight ", w)
		}
	}
}

func TestApplyOutOfRange(t *testing.T) {
	m := newTestManager(1, 1)
	m.AddMorph(vertexMorph("v", 10, geom.Vector3{X: 1}))

	bone := NewMorph("b", TypeBone)
	bone.Bone = []BoneOffset{{Index: 5, Translation: geom.Vector3{X: 1}, Rotation: geom.Vector4{W: 1}}}
	m.AddMorph(bone)

	mat := NewMorph("m", TypeMaterial)
	mat.Material = []MaterialOffset{{Index: 3, EdgeSize: 2}}
	m.AddMorph(mat)

	uv := NewMorph("uv", TypeUV)
	uv.UV = []UVOffset{{Index: 1, Offset: geom.Vector4{X: 1}}}
	m.AddMorph(uv)

	m.AddMorph(groupMorph("g", GroupOffset{Index: 99, Influence: 1}))

	for i := 0; i < m.MorphCount(); i++ {
		m.SetMorphWeight(i, 1)
	}
	positions := []geom.Vector3{{}}
	bones := newTestBones(1)
	m.ApplyMorphs(bones, positions)

	if positions[0] != (geom.Vector3{}) {
		t.Error("vertex changed: ", positions[0])
	}
	if bones[0].AnimationTranslate != (geom.Vector3{}) {
		t.Error("bone changed: ", bones[0])
	}
	if !m.MaterialResults()[0].IsIdentity() {
		t.Error("material changed")
	}
	if m.UVDeltas()[0] != (geom.Vector2{}) {
		t.Error("uv changed")
	}
}

func TestApplyUVMorph(t *testing.T) {
	m := newTestManager(5, 0)
	uv := NewMorph("uv", TypeUV)
	uv.UV = []UVOffset{{Index: 3, Offset: geom.Vector4{X: 0.1, Y: 0.2}}}
	uv.Weight = 0.5
	m.AddMorph(uv)

	uv1 := NewMorph("uv1", TypeAdditionalUV1)
	uv1.UV = []UVOffset{{Index: 0, Offset: geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}}}
	uv1.Weight = 1
	m.AddMorph(uv1)

	for _, typ := range []Type{TypeAdditionalUV2, TypeAdditionalUV3, TypeAdditionalUV4} {
		inert := NewMorph(typ.String(), typ)
		inert.UV = []UVOffset{{Index: 1, Offset: geom.Vector4{X: 1, Y: 1}}}
		inert.Weight = 1
		m.AddMorph(inert)
	}

	m.ApplyMorphs(nil, nil)
	d := m.UVDeltas()
	if geom.Abs(d[3].X-0.05) > eps || geom.Abs(d[3].Y-0.1) > eps {
		t.Error("uv delta: ", d[3])
	}
	if d[0] != (geom.Vector2{X: 1, Y: 1}) {
		t.Error("additional uv1 should target the primary uv: ", d[0])
	}
	for _, i := range []int{1, 2, 4} {
		if d[i] != (geom.Vector2{}) {
			t.Error("uv delta should be zero: ", i, d[i])
		}
	}
}

func TestApplyMaterialMorph(t *testing.T) {
	m := newTestManager(0, 3)

	all := NewMorph("all", TypeMaterial)
	all.Material = []MaterialOffset{*uniformOffset(MaterialMultiply, 2)}
	all.Material[0].Index = AllMaterials
	m.SetMorphWeight(m.AddMorph(all), 0.5)

	one := NewMorph("one", TypeMaterial)
	one.Material = []MaterialOffset{*uniformOffset(MaterialAdditive, 1)}
	one.Material[0].Index = 1
	m.SetMorphWeight(m.AddMorph(one), 1)

	m.ApplyMorphs(nil, nil)
	results := m.MaterialResults()
	checkChannels(t, &results[0], 1.5)
	checkChannels(t, &results[1], 2.5)
	checkChannels(t, &results[2], 1.5)

	if r, ok := m.MaterialResult(1); !ok || r != &results[1] {
		t.Error("MaterialResult(1)")
	}
	if _, ok := m.MaterialResult(3); ok {
		t.Error("MaterialResult(3) should not be found")
	}

	// results are frame scoped
	m.ResetAllWeights()
	m.ApplyMorphs(nil, nil)
	for i := range results {
		checkChannels(t, &results[i], 1)
	}
}

func TestApplyBoneMorph(t *testing.T) {
	s := float32(math.Sin(math.Pi / 4))
	rot := geom.Vector4{X: 0, Y: s, Z: 0, W: s}

	m := newTestManager(0, 0)
	b := NewMorph("b", TypeBone)
	b.Bone = []BoneOffset{{Index: 1, Translation: geom.Vector3{X: 2}, Rotation: rot}}
	i := m.AddMorph(b)

	bones := newTestBones(2)
	m.SetMorphWeight(i, 0.0005)
	m.ApplyMorphs(bones, nil)
	if bones[1].AnimationRotate != (geom.Quaternion{W: 1}) {
		t.Error("rotation at weight 0 should be identity: ", bones[1].AnimationRotate)
	}

	m.SetMorphWeight(i, 1)
	m.ApplyMorphs(bones, nil)
	if bones[1].AnimationRotate.Sub(&rot).Len() > eps {
		t.Error("rotation at weight 1: ", bones[1].AnimationRotate)
	}
	if bones[1].AnimationTranslate != (geom.Vector3{X: 2}) {
		t.Error("translation: ", bones[1].AnimationTranslate)
	}
	if bones[0].AnimationRotate != (geom.Quaternion{W: 1}) {
		t.Error("bone 0 should not move")
	}

	// bone morphs accumulate onto the caller's pose
	m.ApplyMorphs(bones, nil)
	full := rot.Mul(&rot)
	if bones[1].AnimationRotate.Sub(full).Len() > eps {
		t.Error("rotation should compose: ", bones[1].AnimationRotate, full)
	}
	if bones[1].AnimationTranslate != (geom.Vector3{X: 4}) {
		t.Error("translation should accumulate: ", bones[1].AnimationTranslate)
	}

	// half weight is an nlerp from identity
	bones = newTestBones(2)
	m.SetMorphWeight(i, 0.5)
	m.ApplyMorphs(bones, nil)
	half := geom.NewQuaternion(0, s*0.5, 0, 1-(1-s)*0.5).Normalize()
	if bones[1].AnimationRotate.Sub(half).Len() > eps {
		t.Error("rotation at weight 0.5: ", bones[1].AnimationRotate, half)
	}

	// no bone collection
	m.ApplyMorphs(nil, nil)
}

func TestApplyBoneMorphOrder(t *testing.T) {
	s := float32(math.Sin(math.Pi / 4))
	ry := geom.Vector4{Y: s, W: s}
	rx := geom.Vector4{X: s, W: s}

	m := newTestManager(0, 0)
	a := NewMorph("a", TypeBone)
	a.Bone = []BoneOffset{{Index: 0, Rotation: ry}}
	a.Weight = 1
	m.AddMorph(a)
	b := NewMorph("b", TypeBone)
	b.Bone = []BoneOffset{{Index: 0, Rotation: rx}}
	b.Weight = 1
	m.AddMorph(b)

	bones := newTestBones(1)
	m.ApplyMorphs(bones, nil)
	expected := ry.Mul(&rx)
	if bones[0].AnimationRotate.Sub(expected).Len() > eps {
		t.Error("rotations should compose in registration order: ", bones[0].AnimationRotate, expected)
	}
}

func TestApplyGroupMorph(t *testing.T) {
	m := newTestManager(2, 0)
	v0 := m.AddMorph(vertexMorph("v0", 0, geom.Vector3{X: 1}))
	v1 := m.AddMorph(vertexMorph("v1", 1, geom.Vector3{Y: 1}))
	g := m.AddMorph(groupMorph("g",
		GroupOffset{Index: uint32(v0), Influence: 0.5},
		GroupOffset{Index: uint32(v1), Influence: -1},
	))
	outer := m.AddMorph(groupMorph("outer", GroupOffset{Index: uint32(g), Influence: 2}))

	positions := make([]geom.Vector3, 2)
	m.SetMorphWeight(outer, 0.5)
	m.ApplyMorphs(nil, positions)
	if positions[0].Sub(&geom.Vector3{X: 0.5}).Len() > eps || positions[1].Sub(&geom.Vector3{Y: -1}).Len() > eps {
		t.Error("nested group: ", positions)
	}

	// a group and its direct children both active add up
	positions = make([]geom.Vector3, 2)
	m.SetMorphWeight(v0, 1)
	m.ApplyMorphs(nil, positions)
	if positions[0].Sub(&geom.Vector3{X: 1.5}).Len() > eps {
		t.Error("group + child: ", positions[0])
	}

	flip := groupMorph("flip", GroupOffset{Index: uint32(v1), Influence: 1})
	flip.Type = TypeFlip
	m.ResetAllWeights()
	m.SetMorphWeight(m.AddMorph(flip), 1)
	positions = make([]geom.Vector3, 2)
	m.ApplyMorphs(nil, positions)
	if positions[1] != (geom.Vector3{Y: 1}) {
		t.Error("flip should expand like a group: ", positions[1])
	}
}

func TestApplyGroupSelfReference(t *testing.T) {
	m := newTestManager(1, 0)
	v := m.AddMorph(vertexMorph("v", 0, geom.Vector3{X: 1}))
	g := m.AddMorph(groupMorph("g", GroupOffset{Index: 1, Influence: 1}, GroupOffset{Index: uint32(v), Influence: 1}))

	positions := make([]geom.Vector3, 1)
	m.SetMorphWeight(g, 1)
	m.ApplyMorphs(nil, positions)
	if positions[0] != (geom.Vector3{X: 1}) {
		t.Error("self reference should be skipped: ", positions[0])
	}
}

func TestApplyGroupCycle(t *testing.T) {
	m := newTestManager(1, 0)
	// a -> b -> a, both also pull the vertex morph
	m.AddMorph(groupMorph("a", GroupOffset{Index: 1, Influence: 1}, GroupOffset{Index: 2, Influence: 1}))
	m.AddMorph(groupMorph("b", GroupOffset{Index: 0, Influence: 1}, GroupOffset{Index: 2, Influence: 1}))
	m.AddMorph(vertexMorph("v", 0, geom.Vector3{X: 1}))

	positions := make([]geom.Vector3, 1)
	m.SetMorphWeight(0, 1)
	m.ApplyMorphs(nil, positions)

	// groups are expanded at depths 0..16 and each pulls v once, one level deeper.
	// v is reached at depths 1..16; the call at depth 17 is dropped.
	if positions[0].X != MaxGroupDepth {
		t.Error("cycle contribution: ", positions[0].X)
	}
}

func TestApplyGroupInfluenceDecay(t *testing.T) {
	m := newTestManager(1, 0)
	m.AddMorph(groupMorph("a", GroupOffset{Index: 1, Influence: 0.5}, GroupOffset{Index: 2, Influence: 1}))
	m.AddMorph(groupMorph("b", GroupOffset{Index: 0, Influence: 0.5}, GroupOffset{Index: 2, Influence: 1}))
	m.AddMorph(vertexMorph("v", 0, geom.Vector3{X: 1}))

	positions := make([]geom.Vector3, 1)
	m.SetMorphWeight(0, 1)
	m.ApplyMorphs(nil, positions)

	// weights halve per hop: 1, 0.5, ... 2^-9; 2^-10 is below epsilon.
	if positions[0].X != 2-1.0/512 {
		t.Error("decaying cycle: ", positions[0].X)
	}
}
