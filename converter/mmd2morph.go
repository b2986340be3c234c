package converter

import (
	"strings"

	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/logger"
	"github.com/binzume/mmdmorph/mmd"
	"github.com/binzume/mmdmorph/morph"
	"github.com/binzume/mmdmorph/skeleton"
	"go.uber.org/zap"
)

func vec3(v mmd.Vector3) geom.Vector3 {
	return geom.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func vec4(v mmd.Vector4) geom.Vector4 {
	return geom.Vector4{X: v.X, Y: v.Y, Z: v.Z, W: v.W}
}

// ConvertMorph converts a PMX morph. Negative vertex, bone and group targets are dropped.
func ConvertMorph(src *mmd.Morph) *morph.Morph {
	m := morph.NewMorph(src.Name, morph.Type(src.MorphType))
	dropped := 0
	for _, g := range src.Group {
		if g.Target < 0 {
			dropped++
			continue
		}
		m.Group = append(m.Group, morph.GroupOffset{Index: uint32(g.Target), Influence: g.Weight})
	}
	for _, v := range src.Vertex {
		if v.Target < 0 {
			dropped++
			continue
		}
		m.Vertex = append(m.Vertex, morph.VertexOffset{Index: uint32(v.Target), Offset: vec3(v.Offset)})
	}
	for _, b := range src.Bone {
		if b.Target < 0 {
			dropped++
			continue
		}
		m.Bone = append(m.Bone, morph.BoneOffset{Index: uint32(b.Target), Translation: vec3(b.Translation), Rotation: vec4(b.Rotation)})
	}
	for _, uv := range src.UV {
		if uv.Target < 0 {
			dropped++
			continue
		}
		m.UV = append(m.UV, morph.UVOffset{Index: uint32(uv.Target), Offset: vec4(uv.Value)})
	}
	for _, mat := range src.Material {
		m.Material = append(m.Material, morph.MaterialOffset{
			Index:            int32(mat.Target),
			Operation:        morph.MaterialOperation(mat.Flags),
			Diffuse:          vec4(mat.Diffuse),
			Specular:         vec3(mat.Specular),
			SpecularStrength: mat.Specularity,
			Ambient:          vec3(mat.Ambient),
			EdgeColor:        vec4(mat.EdgeColor),
			EdgeSize:         mat.EdgeSize,
			TextureTint:      vec4(mat.TextureTint),
			EnvironmentTint:  vec4(mat.EnvironmentTint),
			ToonTint:         vec4(mat.ToonTint),
		})
	}
	if dropped > 0 {
		logger.Warn("negative morph targets dropped", zap.String("morph", src.Name), zap.Int("count", dropped))
	}
	return m
}

// MMDToMorph builds a Model from a PMX/PMD document. Morphs keep the file order.
func MMDToMorph(doc *mmd.Document) *Model {
	model := &Model{
		Name:     doc.Name,
		Manager:  morph.NewManager(),
		Skeleton: skeleton.FromDocument(doc),
	}

	for _, v := range doc.Vertexes {
		model.Positions = append(model.Positions, vec3(v.Pos))
		model.UVs = append(model.UVs, geom.Vector2{X: v.UV.X, Y: v.UV.Y})
	}

	face := 0
	for i, mat := range doc.Materials {
		model.Materials = append(model.Materials, &Material{
			Name:     mat.Name,
			Diffuse:  vec4(mat.Color),
			Specular: vec3(mat.Specular),
			Ambient:  vec3(mat.AColor),
			Texture:  textureName(doc, mat.TextureID),
		})
		for n := 0; n < mat.Count/3 && face < len(doc.Faces); n++ {
			model.addFace(doc.Faces[face].Verts, i)
			face++
		}
	}
	for ; face < len(doc.Faces); face++ {
		model.addFace(doc.Faces[face].Verts, -1)
	}

	model.Manager.SetVertexCount(len(model.Positions))
	model.Manager.SetMaterialCount(len(model.Materials))
	for _, m := range doc.Morphs {
		model.Manager.AddMorph(ConvertMorph(m))
	}

	logger.Debug("mmd model loaded",
		zap.String("name", doc.Name),
		zap.Int("vertexes", len(model.Positions)),
		zap.Int("faces", len(model.Faces)),
		zap.Int("morphs", model.Manager.MorphCount()))
	return model
}

// textureName returns the texture path with '/' separators, or "".
func textureName(doc *mmd.Document, id int) string {
	if id < 0 || id >= len(doc.Textures) {
		return ""
	}
	return strings.ReplaceAll(doc.Textures[id], "\\", "/")
}

func (m *Model) addFace(verts [3]int, material int) {
	m.Faces = append(m.Faces, verts)
	m.FaceMaterials = append(m.FaceMaterials, material)
}
