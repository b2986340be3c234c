package converter

import (
	"fmt"

	"github.com/binzume/mmdmorph/morph"
)

type IssueKind int

const (
	IssueIndexOutOfRange IssueKind = iota
	IssueSelfReference
	IssueGroupCycle
	IssueDepthLimit
	IssueUnusedPayload
)

func (k IssueKind) String() string {
	switch k {
	case IssueIndexOutOfRange:
		return "index out of range"
	case IssueSelfReference:
		return "self reference"
	case IssueGroupCycle:
		return "group cycle"
	case IssueDepthLimit:
		return "depth limit"
	case IssueUnusedPayload:
		return "unused payload"
	}
	return "unknown"
}

// Issue is a problem in morph data. The blend pass tolerates all of them
// silently; Validate exists so tools can report them.
type Issue struct {
	Morph   int
	Name    string
	Kind    IssueKind
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("morph %d (%s): %s: %s", i.Morph, i.Name, i.Kind, i.Message)
}

type validator struct {
	m         *morph.Manager
	boneCount int
	issues    []Issue
}

func (v *validator) add(i int, kind IssueKind, format string, args ...interface{}) {
	name := ""
	if m, ok := v.m.Morph(i); ok {
		name = m.Name
	}
	v.issues = append(v.issues, Issue{Morph: i, Name: name, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) checkIndexes(i int, m *morph.Morph) {
	for j, o := range m.Vertex {
		if int(o.Index) >= v.m.VertexCount() {
			v.add(i, IssueIndexOutOfRange, "vertex offset %d: vertex %d of %d", j, o.Index, v.m.VertexCount())
		}
	}
	for j, o := range m.Bone {
		if int(o.Index) >= v.boneCount {
			v.add(i, IssueIndexOutOfRange, "bone offset %d: bone %d of %d", j, o.Index, v.boneCount)
		}
	}
	for j, o := range m.Material {
		// any negative index is applied to every material
		if int(o.Index) >= v.m.MaterialCount() {
			v.add(i, IssueIndexOutOfRange, "material offset %d: material %d of %d", j, o.Index, v.m.MaterialCount())
		}
	}
	for j, o := range m.UV {
		if int(o.Index) >= v.m.VertexCount() {
			v.add(i, IssueIndexOutOfRange, "uv offset %d: vertex %d of %d", j, o.Index, v.m.VertexCount())
		}
	}
	for j, o := range m.Group {
		if int(o.Index) >= v.m.MorphCount() {
			v.add(i, IssueIndexOutOfRange, "group offset %d: morph %d of %d", j, o.Index, v.m.MorphCount())
		} else if int(o.Index) == i {
			v.add(i, IssueSelfReference, "group offset %d", j)
		}
	}
}

func (v *validator) checkPayload(i int, m *morph.Morph) {
	used := m.Len()
	total := len(m.Vertex) + len(m.Bone) + len(m.Material) + len(m.UV) + len(m.Group)
	if total != used {
		v.add(i, IssueUnusedPayload, "%d offsets ignored for %s morph", total-used, m.Type)
	}
}

// edges returns the group targets followed by the blend pass.
func (v *validator) edges(i int) []int {
	m, _ := v.m.Morph(i)
	if m.Type != morph.TypeGroup && m.Type != morph.TypeFlip {
		return nil
	}
	var r []int
	for _, o := range m.Group {
		if t := int(o.Index); t < v.m.MorphCount() && t != i {
			r = append(r, t)
		}
	}
	return r
}

// checkGraph reports morphs on group cycles and acyclic chains deeper than the
// blend pass follows.
func (v *validator) checkGraph() {
	const (
		unvisited = iota
		active
		done
	)
	n := v.m.MorphCount()
	state := make([]int, n)
	height := make([]int, n)
	onCycle := make([]bool, n)
	var stack []int

	var visit func(i int)
	visit = func(i int) {
		state[i] = active
		stack = append(stack, i)
		for _, t := range v.edges(i) {
			switch state[t] {
			case unvisited:
				visit(t)
			case active:
				for k := len(stack) - 1; k >= 0; k-- {
					onCycle[stack[k]] = true
					if stack[k] == t {
						break
					}
				}
			}
			if height[t]+1 > height[i] {
				height[i] = height[t] + 1
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
	}
	for i := 0; i < n; i++ {
		if state[i] == unvisited {
			visit(i)
		}
	}

	for i := 0; i < n; i++ {
		if onCycle[i] {
			v.add(i, IssueGroupCycle, "expansion stops at depth %d", morph.MaxGroupDepth)
		} else if height[i] > morph.MaxGroupDepth {
			v.add(i, IssueDepthLimit, "group chain of depth %d is cut at %d", height[i], morph.MaxGroupDepth)
		}
	}
}

// Validate reports out-of-range offsets, self references and group cycles.
// boneCount is the size of the bone collection the morphs will be applied to.
func Validate(m *morph.Manager, boneCount int) []Issue {
	v := &validator{m: m, boneCount: boneCount}
	for i, mo := range m.Morphs() {
		v.checkIndexes(i, mo)
		v.checkPayload(i, mo)
	}
	v.checkGraph()
	return v.issues
}
