// Package morph blends weighted MMD morph targets into vertex, bone, material and UV deltas.
package morph

import "github.com/binzume/mmdmorph/geom"

// Type is the morph kind. Values match the PMX morph type byte.
type Type uint8

const (
	TypeGroup Type = iota
	TypeVertex
	TypeBone
	TypeUV
	TypeAdditionalUV1
	TypeAdditionalUV2
	TypeAdditionalUV3
	TypeAdditionalUV4
	TypeMaterial
	TypeFlip
	TypeImpulse
)

var typeNames = [...]string{
	TypeGroup:         "group",
	TypeVertex:        "vertex",
	TypeBone:          "bone",
	TypeUV:            "uv",
	TypeAdditionalUV1: "uv1",
	TypeAdditionalUV2: "uv2",
	TypeAdditionalUV3: "uv3",
	TypeAdditionalUV4: "uv4",
	TypeMaterial:      "material",
	TypeFlip:          "flip",
	TypeImpulse:       "impulse",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

type VertexOffset struct {
	Index  uint32
	Offset geom.Vector3
}

type BoneOffset struct {
	Index       uint32
	Translation geom.Vector3
	Rotation    geom.Vector4
}

// MaterialOperation selects the blend law of a MaterialOffset.
type MaterialOperation uint8

const (
	MaterialMultiply MaterialOperation = 0
	MaterialAdditive MaterialOperation = 1
)

// AllMaterials as MaterialOffset.Index targets every material.
// ApplyMorphs treats any negative index the same way.
const AllMaterials = -1

type MaterialOffset struct {
	Index     int32
	Operation MaterialOperation

	Diffuse          geom.Vector4
	Specular         geom.Vector3
	SpecularStrength float32
	Ambient          geom.Vector3
	EdgeColor        geom.Vector4
	EdgeSize         float32
	TextureTint      geom.Vector4
	EnvironmentTint  geom.Vector4
	ToonTint         geom.Vector4
}

// UVOffset moves a vertex UV. Only X and Y are used.
type UVOffset struct {
	Index  uint32
	Offset geom.Vector4
}

// GroupOffset references another morph by index.
type GroupOffset struct {
	Index     uint32
	Influence float32
}

// Morph is a named morph target and its current weight.
// Only the payload list matching Type is used.
type Morph struct {
	Name   string
	Type   Type
	Weight float32

	Vertex   []VertexOffset
	Bone     []BoneOffset
	Material []MaterialOffset
	UV       []UVOffset
	Group    []GroupOffset
}

func NewMorph(name string, typ Type) *Morph {
	return &Morph{Name: name, Type: typ}
}

func (m *Morph) SetWeight(w float32) {
	m.Weight = w
}

// Reset sets the weight to 0.
func (m *Morph) Reset() {
	m.Weight = 0
}

// Len returns the number of offsets in the active payload.
func (m *Morph) Len() int {
	switch m.Type {
	case TypeVertex:
		return len(m.Vertex)
	case TypeBone:
		return len(m.Bone)
	case TypeMaterial:
		return len(m.Material)
	case TypeUV, TypeAdditionalUV1, TypeAdditionalUV2, TypeAdditionalUV3, TypeAdditionalUV4:
		return len(m.UV)
	case TypeGroup, TypeFlip:
		return len(m.Group)
	}
	return 0
}
