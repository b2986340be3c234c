package converter

import (
	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/morph"
	"github.com/binzume/mmdmorph/skeleton"
)

// Model is a triangle mesh with its morphs, independent of the source format.
type Model struct {
	Name      string
	Manager   *morph.Manager
	Skeleton  *skeleton.Skeleton
	Positions []geom.Vector3
	UVs       []geom.Vector2
	Faces     [][3]int
	// FaceMaterials is the material index of each face, -1 if none.
	FaceMaterials []int
	Materials     []*Material
}

type Material struct {
	Name     string
	Diffuse  geom.Vector4
	Specular geom.Vector3
	Ambient  geom.Vector3

	// Texture is the texture file path relative to the model file.
	Texture string
	// TextureData holds an embedded texture image, if any.
	TextureData []byte
}

// Pose resets the skeleton, runs one morph pass and returns the morphed positions.
// The base positions are left untouched.
func (m *Model) Pose() []geom.Vector3 {
	pos := make([]geom.Vector3, len(m.Positions))
	copy(pos, m.Positions)
	m.Skeleton.ResetPose()
	m.Manager.ApplyMorphs(m.Skeleton, pos)
	return pos
}

// MorphedUVs returns base UVs plus the UV deltas of the last pass.
func (m *Model) MorphedUVs() []geom.Vector2 {
	uvs := make([]geom.Vector2, len(m.UVs))
	deltas := m.Manager.UVDeltas()
	for i, uv := range m.UVs {
		if i < len(deltas) {
			uv = *uv.Add(&deltas[i])
		}
		uvs[i] = uv
	}
	return uvs
}

// MaterialColor returns the base diffuse color multiplied by the morph result
// of the last pass.
func (m *Model) MaterialColor(i int) geom.Vector4 {
	if i < 0 || i >= len(m.Materials) {
		return geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}
	}
	c := m.Materials[i].Diffuse
	if r, ok := m.Manager.MaterialResult(i); ok {
		c = *c.MulElements(&r.Diffuse)
	}
	return c
}
