package converter

import (
	"fmt"

	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/mmd"
	"github.com/binzume/mmdmorph/morph"
	"github.com/tiendc/go-deepcopy"
)

type BakeOptions struct {
	// DropMorphs removes the morph list from the baked document.
	DropMorphs bool
}

func mulVec3(v *mmd.Vector3, s geom.Vector3) {
	v.X *= s.X
	v.Y *= s.Y
	v.Z *= s.Z
}

func mulVec4(v *mmd.Vector4, s geom.Vector4) {
	v.X *= s.X
	v.Y *= s.Y
	v.Z *= s.Z
	v.W *= s.W
}

func bakeMaterial(mat *mmd.Material, r *morph.MaterialResult) {
	mulVec4(&mat.Color, r.Diffuse)
	mulVec3(&mat.Specular, r.Specular)
	mat.Specularity *= r.SpecularStrength
	mulVec3(&mat.AColor, r.Ambient)
	mulVec4(&mat.EdgeColor, r.EdgeColor)
	mat.EdgeScale *= r.EdgeSize
}

// Bake returns a copy of doc with the current morph weights of model folded
// into vertex positions, UVs and material colors. doc is not modified.
// model must have been built from doc.
func Bake(doc *mmd.Document, model *Model, opt *BakeOptions) (*mmd.Document, error) {
	if len(doc.Vertexes) != len(model.Positions) || len(doc.Materials) != len(model.Materials) {
		return nil, fmt.Errorf("bake: model does not match document")
	}
	if opt == nil {
		opt = &BakeOptions{}
	}

	var out mmd.Document
	if err := deepcopy.Copy(&out, doc); err != nil {
		return nil, fmt.Errorf("bake: %w", err)
	}

	pos := model.Pose()
	uvs := model.MorphedUVs()
	for i, v := range out.Vertexes {
		v.Pos = mmd.Vector3{X: pos[i].X, Y: pos[i].Y, Z: pos[i].Z}
		v.UV = mmd.Vector2{X: uvs[i].X, Y: uvs[i].Y}
	}
	for i, mat := range out.Materials {
		if r, ok := model.Manager.MaterialResult(i); ok && !r.IsIdentity() {
			bakeMaterial(mat, r)
		}
	}
	if opt.DropMorphs {
		out.Morphs = nil
	}
	return &out, nil
}
