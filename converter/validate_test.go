package converter

import (
	"testing"

	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/morph"
)

func countIssues(issues []Issue, kind IssueKind) int {
	n := 0
	for _, i := range issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

func TestValidateClean(t *testing.T) {
	model := MMDToMorph(testDocument())
	if issues := Validate(model.Manager, len(model.Skeleton.Bones)); len(issues) != 0 {
		t.Error("unexpected issues: ", issues)
	}
}

func TestValidateIssues(t *testing.T) {
	m := morph.NewManager()
	m.SetVertexCount(2)
	m.SetMaterialCount(1)

	m.AddMorph(&morph.Morph{Name: "v", Type: morph.TypeVertex, Vertex: []morph.VertexOffset{{Index: 5}}})
	m.AddMorph(&morph.Morph{Name: "b", Type: morph.TypeBone, Bone: []morph.BoneOffset{{Index: 3, Rotation: geom.Vector4{W: 1}}}})
	m.AddMorph(&morph.Morph{Name: "mat", Type: morph.TypeMaterial, Material: []morph.MaterialOffset{{Index: -1}, {Index: 1}, {Index: -2}}})
	m.AddMorph(&morph.Morph{Name: "self", Type: morph.TypeGroup, Group: []morph.GroupOffset{{Index: 3, Influence: 1}}})
	m.AddMorph(&morph.Morph{Name: "a", Type: morph.TypeGroup, Group: []morph.GroupOffset{{Index: 5, Influence: 1}}})
	m.AddMorph(&morph.Morph{Name: "b", Type: morph.TypeFlip, Group: []morph.GroupOffset{{Index: 4, Influence: 1}, {Index: 99}}})
	m.AddMorph(&morph.Morph{Name: "mixed", Type: morph.TypeUV, UV: []morph.UVOffset{{Index: 1}}, Vertex: []morph.VertexOffset{{Index: 0}}})

	issues := Validate(m, 2)

	if n := countIssues(issues, IssueIndexOutOfRange); n != 4 {
		t.Error("out of range: ", n, issues)
	}
	if n := countIssues(issues, IssueSelfReference); n != 1 {
		t.Error("self reference: ", n, issues)
	}
	if n := countIssues(issues, IssueGroupCycle); n != 2 {
		t.Error("cycle: ", n, issues)
	}
	if n := countIssues(issues, IssueUnusedPayload); n != 1 {
		t.Error("unused payload: ", n, issues)
	}
	for _, i := range issues {
		if i.Kind == IssueGroupCycle && i.Name != "a" && i.Name != "b" {
			t.Error("cycle member: ", i)
		}
	}
}

func TestValidateNegativeMaterialBroadcast(t *testing.T) {
	m := morph.NewManager()
	m.SetMaterialCount(2)
	o := identityOffset()
	o.Index = -2
	o.EdgeSize = 2
	m.SetMorphWeight(m.AddMorph(&morph.Morph{Name: "edge", Type: morph.TypeMaterial, Material: []morph.MaterialOffset{o}}), 1)

	if issues := Validate(m, 0); len(issues) != 0 {
		t.Error("negative material index is a broadcast: ", issues)
	}

	m.ApplyMorphs(nil, nil)
	for i := 0; i < 2; i++ {
		if r, _ := m.MaterialResult(i); !near(r.EdgeSize, 2) {
			t.Error("material ", i, r.EdgeSize)
		}
	}
}

func TestValidateDepth(t *testing.T) {
	m := morph.NewManager()
	m.SetVertexCount(1)
	for i := 0; i < 18; i++ {
		g := &morph.Morph{Name: "g", Type: morph.TypeGroup, Group: []morph.GroupOffset{{Index: uint32(i + 1), Influence: 1}}}
		m.AddMorph(g)
	}
	m.AddMorph(&morph.Morph{Name: "leaf", Type: morph.TypeVertex, Vertex: []morph.VertexOffset{{Index: 0}}})

	issues := Validate(m, 0)
	// morphs 0 and 1 are 18 and 17 steps from the leaf
	if n := countIssues(issues, IssueDepthLimit); n != 2 {
		t.Error("depth: ", n, issues)
	}
	if issues[0].String() == "" {
		t.Error("String")
	}
}
