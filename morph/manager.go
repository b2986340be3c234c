package morph

import "github.com/binzume/mmdmorph/geom"

const (
	// WeightEpsilon is the smallest absolute weight that still contributes.
	WeightEpsilon = 0.001
	// MaxGroupDepth bounds group morph recursion.
	MaxGroupDepth = 16
)

// Manager owns a model's morphs and the per-frame material and UV results.
//
// A Manager is not safe for concurrent use. ApplyMorphs mutates the
// result buffers and the caller's bones and positions.
type Manager struct {
	morphs      []*Morph
	nameToIndex map[string]int

	materialResults []MaterialResult
	uvDeltas        []geom.Vector2
}

func NewManager() *Manager {
	return &Manager{nameToIndex: map[string]int{}}
}

// SetMaterialCount reallocates the material results at the baseline.
func (m *Manager) SetMaterialCount(n int) {
	m.materialResults = make([]MaterialResult, n)
	for i := range m.materialResults {
		m.materialResults[i].Reset()
	}
}

// SetVertexCount reallocates the UV deltas to zero.
func (m *Manager) SetVertexCount(n int) {
	m.uvDeltas = make([]geom.Vector2, n)
}

func (m *Manager) MaterialCount() int {
	return len(m.materialResults)
}

func (m *Manager) VertexCount() int {
	return len(m.uvDeltas)
}

// AddMorph registers morph and returns its index. A morph with the same
// name as an earlier one shadows it for name lookup only.
func (m *Manager) AddMorph(morph *Morph) int {
	index := len(m.morphs)
	m.nameToIndex[morph.Name] = index
	m.morphs = append(m.morphs, morph)
	return index
}

func (m *Manager) FindMorphByName(name string) (int, bool) {
	i, ok := m.nameToIndex[name]
	return i, ok
}

func (m *Manager) MorphCount() int {
	return len(m.morphs)
}

func (m *Manager) Morph(index int) (*Morph, bool) {
	if index < 0 || index >= len(m.morphs) {
		return nil, false
	}
	return m.morphs[index], true
}

// Morphs returns the registered morphs in index order.
func (m *Manager) Morphs() []*Morph {
	return m.morphs
}

func (m *Manager) SetMorphWeight(index int, w float32) {
	if morph, ok := m.Morph(index); ok {
		morph.SetWeight(w)
	}
}

// SetMorphWeightByName reports whether a morph named name exists.
func (m *Manager) SetMorphWeightByName(name string, w float32) bool {
	i, ok := m.nameToIndex[name]
	if ok {
		m.morphs[i].SetWeight(w)
	}
	return ok
}

func (m *Manager) MorphWeight(index int) float32 {
	if morph, ok := m.Morph(index); ok {
		return morph.Weight
	}
	return 0
}

// ResetAllWeights zeroes every weight. Result buffers keep their contents
// until the next ApplyMorphs.
func (m *Manager) ResetAllWeights() {
	for _, morph := range m.morphs {
		morph.Reset()
	}
}

func (m *Manager) MaterialResult(index int) (*MaterialResult, bool) {
	if index < 0 || index >= len(m.materialResults) {
		return nil, false
	}
	return &m.materialResults[index], true
}

func (m *Manager) MaterialResults() []MaterialResult {
	return m.materialResults
}

func (m *Manager) UVDeltas() []geom.Vector2 {
	return m.uvDeltas
}

// ApplyMorphs runs one blend pass. positions and bones must already hold
// the pre-morph pose; bones may be nil.
func (m *Manager) ApplyMorphs(bones BoneCollection, positions []geom.Vector3) {
	for i := range m.materialResults {
		m.materialResults[i].Reset()
	}
	for i := range m.uvDeltas {
		m.uvDeltas[i] = geom.Vector2{}
	}

	for i, morph := range m.morphs {
		if geom.Abs(morph.Weight) > WeightEpsilon {
			m.applyMorph(i, morph.Weight, bones, positions, 0)
		}
	}
}

func (m *Manager) applyMorph(index int, w float32, bones BoneCollection, positions []geom.Vector3, depth int) {
	if depth > MaxGroupDepth || geom.Abs(w) < WeightEpsilon {
		return
	}
	morph, ok := m.Morph(index)
	if !ok {
		return
	}

	switch morph.Type {
	case TypeVertex:
		applyVertexOffsets(morph.Vertex, w, positions)
	case TypeBone:
		applyBoneOffsets(morph.Bone, w, bones)
	case TypeGroup, TypeFlip:
		for _, sub := range morph.Group {
			target := int(sub.Index)
			if target < len(m.morphs) && target != index {
				m.applyMorph(target, w*sub.Influence, bones, positions, depth+1)
			}
		}
	case TypeMaterial:
		m.applyMaterialOffsets(morph.Material, w)
	case TypeUV, TypeAdditionalUV1:
		m.applyUVOffsets(morph.UV, w)
	default:
		// AdditionalUV2-4 and Impulse have no effect.
	}
}

func applyVertexOffsets(offsets []VertexOffset, w float32, positions []geom.Vector3) {
	for i := range offsets {
		o := &offsets[i]
		if int(o.Index) < len(positions) {
			p := &positions[o.Index]
			p.X += o.Offset.X * w
			p.Y += o.Offset.Y * w
			p.Z += o.Offset.Z * w
		}
	}
}

func applyBoneOffsets(offsets []BoneOffset, w float32, bones BoneCollection) {
	if bones == nil {
		return
	}
	for i := range offsets {
		o := &offsets[i]
		b := bones.Bone(int(o.Index))
		if b == nil {
			continue
		}
		b.AnimationTranslate = *b.AnimationTranslate.Add(o.Translation.Scale(w))
		b.AnimationRotate = *b.AnimationRotate.Mul(weightedRotation(&o.Rotation, w))
	}
}

func (m *Manager) applyMaterialOffsets(offsets []MaterialOffset, w float32) {
	for i := range offsets {
		o := &offsets[i]
		if o.Index < 0 {
			for j := range m.materialResults {
				m.materialResults[j].Apply(o, w)
			}
		} else if int(o.Index) < len(m.materialResults) {
			m.materialResults[o.Index].Apply(o, w)
		}
	}
}

func (m *Manager) applyUVOffsets(offsets []UVOffset, w float32) {
	for i := range offsets {
		o := &offsets[i]
		if int(o.Index) < len(m.uvDeltas) {
			d := &m.uvDeltas[o.Index]
			d.X += o.Offset.X * w
			d.Y += o.Offset.Y * w
		}
	}
}
