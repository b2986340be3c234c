package converter

import (
	"fmt"
	"io"
	"os"

	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/logger"
	"github.com/binzume/mmdmorph/morph"
	"github.com/binzume/mmdmorph/vrm"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// materialColorProperty is the VRM 0.x material property holding the base color.
const materialColorProperty = "_Color"

type gltfToMorph struct {
	src   *gltf.Document
	model *Model
	// morph index of each (mesh, target)
	targets [][]int
}

func targetNames(mesh *gltf.Mesh) []string {
	extras, ok := mesh.Extras.(map[string]interface{})
	if !ok {
		return nil
	}
	switch list := extras["targetNames"].(type) {
	case []string:
		return list
	case []interface{}:
		names := make([]string, len(list))
		for i, n := range list {
			names[i], _ = n.(string)
		}
		return names
	}
	return nil
}

func (c *gltfToMorph) convertMaterials() {
	for _, m := range c.src.Materials {
		mat := &Material{Name: m.Name, Diffuse: geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}}
		if m.PBRMetallicRoughness != nil {
			col := m.PBRMetallicRoughness.BaseColorFactorOrDefault()
			mat.Diffuse = geom.Vector4{X: col[0], Y: col[1], Z: col[2], W: col[3]}
			if t := m.PBRMetallicRoughness.BaseColorTexture; t != nil {
				if err := c.setTexture(mat, t.Index); err != nil {
					logger.Warn("texture skipped", zap.String("material", m.Name), zap.Error(err))
				}
			}
		}
		c.model.Materials = append(c.model.Materials, mat)
	}
}

func (c *gltfToMorph) setTexture(mat *Material, texture uint32) error {
	if int(texture) >= len(c.src.Textures) {
		return fmt.Errorf("texture %d out of range", texture)
	}
	src := c.src.Textures[texture].Source
	if src == nil || int(*src) >= len(c.src.Images) {
		return fmt.Errorf("texture %d has no image", texture)
	}
	img := c.src.Images[*src]
	switch {
	case img.BufferView != nil:
		if int(*img.BufferView) >= len(c.src.BufferViews) {
			return fmt.Errorf("image bufferView %d out of range", *img.BufferView)
		}
		data, err := modeler.ReadBufferView(c.src, c.src.BufferViews[*img.BufferView])
		if err != nil {
			return err
		}
		mat.TextureData = data
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return err
		}
		mat.TextureData = data
	default:
		mat.Texture = img.URI
	}
	return nil
}

func (c *gltfToMorph) accessor(i uint32) (*gltf.Accessor, error) {
	if int(i) >= len(c.src.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", i, len(c.src.Accessors))
	}
	return c.src.Accessors[i], nil
}

func (c *gltfToMorph) convertPrimitive(p *gltf.Primitive, targets []*morph.Morph) error {
	if p.Mode != gltf.PrimitiveTriangles {
		logger.Warn("primitive skipped", zap.Uint8("mode", uint8(p.Mode)))
		return nil
	}
	a, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	acr, err := c.accessor(a)
	if err != nil {
		return err
	}
	pos, err := modeler.ReadPosition(c.src, acr, [][3]float32{})
	if err != nil {
		return err
	}
	base := len(c.model.Positions)
	for _, v := range pos {
		c.model.Positions = append(c.model.Positions, geom.Vector3{X: v[0], Y: v[1], Z: v[2]})
	}

	uvs := make([]geom.Vector2, len(pos))
	if a, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := c.accessor(a)
		if err != nil {
			return err
		}
		t, err := modeler.ReadTextureCoord(c.src, acr, [][2]float32{})
		if err != nil {
			return err
		}
		for i := range uvs {
			if i < len(t) {
				uvs[i] = geom.Vector2{X: t[i][0], Y: t[i][1]}
			}
		}
	}
	c.model.UVs = append(c.model.UVs, uvs...)

	var indices []uint32
	if p.Indices != nil {
		acr, err := c.accessor(*p.Indices)
		if err != nil {
			return err
		}
		indices, err = modeler.ReadIndices(c.src, acr, []uint32{})
		if err != nil {
			return err
		}
	} else {
		for i := range pos {
			indices = append(indices, uint32(i))
		}
	}
	mat := -1
	if p.Material != nil {
		mat = int(*p.Material)
	}
	if mat >= len(c.model.Materials) {
		mat = -1
	}
	skipped := 0
	for i := 0; i+2 < len(indices); i += 3 {
		if int(indices[i]) >= len(pos) || int(indices[i+1]) >= len(pos) || int(indices[i+2]) >= len(pos) {
			skipped++
			continue
		}
		c.model.addFace([3]int{base + int(indices[i]), base + int(indices[i+1]), base + int(indices[i+2])}, mat)
	}
	if skipped > 0 {
		logger.Warn("faces with out of range indices skipped", zap.Int("count", skipped))
	}

	for t, target := range p.Targets {
		if t >= len(targets) {
			break
		}
		a, ok := target[gltf.POSITION]
		if !ok {
			continue
		}
		acr, err := c.accessor(a)
		if err != nil {
			return fmt.Errorf("target %d: %w", t, err)
		}
		d, err := modeler.ReadPosition(c.src, acr, [][3]float32{})
		if err != nil {
			return err
		}
		for i, v := range d {
			if v == [3]float32{} || i >= len(pos) {
				continue
			}
			targets[t].Vertex = append(targets[t].Vertex, morph.VertexOffset{
				Index:  uint32(base + i),
				Offset: geom.Vector3{X: v[0], Y: v[1], Z: v[2]},
			})
		}
	}
	return nil
}

func (c *gltfToMorph) convertMesh(mi int, mesh *gltf.Mesh) error {
	n := 0
	for _, p := range mesh.Primitives {
		if len(p.Targets) > n {
			n = len(p.Targets)
		}
	}
	names := targetNames(mesh)
	targets := make([]*morph.Morph, n)
	for t := range targets {
		name := fmt.Sprintf("%s.%d", mesh.Name, t)
		if t < len(names) && names[t] != "" {
			name = names[t]
		}
		targets[t] = morph.NewMorph(name, morph.TypeVertex)
	}

	for _, p := range mesh.Primitives {
		if err := c.convertPrimitive(p, targets); err != nil {
			return fmt.Errorf("mesh %d (%s): %w", mi, mesh.Name, err)
		}
	}

	c.targets[mi] = make([]int, n)
	for t, m := range targets {
		c.targets[mi][t] = c.model.Manager.AddMorph(m)
	}
	return nil
}

// materialMorph converts VRM material value binds into a multiply morph that
// moves the base color toward the target color.
func (c *gltfToMorph) materialMorph(name string, values []*vrm.MaterialValueBind) *morph.Morph {
	doc := (*vrm.Document)(c.src)
	m := morph.NewMorph(name, morph.TypeMaterial)
	for _, v := range values {
		if v.PropertyName != materialColorProperty || len(v.TargetValue) < 4 {
			logger.Debug("material value skipped", zap.String("group", name), zap.String("property", v.PropertyName))
			continue
		}
		mi, ok := doc.FindMaterial(v.MaterialName)
		if !ok {
			logger.Warn("material not found", zap.String("group", name), zap.String("material", v.MaterialName))
			continue
		}
		o := identityOffset()
		o.Index = int32(mi)
		base := c.model.Materials[mi].Diffuse
		o.Diffuse = geom.Vector4{
			X: ratio(v.TargetValue[0], base.X),
			Y: ratio(v.TargetValue[1], base.Y),
			Z: ratio(v.TargetValue[2], base.Z),
			W: ratio(v.TargetValue[3], base.W),
		}
		m.Material = append(m.Material, o)
	}
	if len(m.Material) == 0 {
		return nil
	}
	return m
}

func ratio(target, base float32) float32 {
	if base == 0 {
		return 1
	}
	return target / base
}

func identityOffset() morph.MaterialOffset {
	r := morph.NewMaterialResult()
	return morph.MaterialOffset{
		Operation:        morph.MaterialMultiply,
		Diffuse:          r.Diffuse,
		Specular:         r.Specular,
		SpecularStrength: r.SpecularStrength,
		Ambient:          r.Ambient,
		EdgeColor:        r.EdgeColor,
		EdgeSize:         r.EdgeSize,
		TextureTint:      r.TextureTint,
		EnvironmentTint:  r.EnvironmentTint,
		ToonTint:         r.ToonTint,
	}
}

func (c *gltfToMorph) convertBlendShapes(ext *vrm.VRM) {
	for _, g := range ext.BlendShapeMaster.BlendShapeGroups {
		name := g.GroupName()
		group := morph.NewMorph(name, morph.TypeGroup)
		for _, b := range g.Binds {
			if b.Mesh < 0 || b.Mesh >= len(c.targets) || b.Index < 0 || b.Index >= len(c.targets[b.Mesh]) {
				logger.Warn("blend shape bind skipped", zap.String("group", name), zap.Int("mesh", b.Mesh), zap.Int("index", b.Index))
				continue
			}
			group.Group = append(group.Group, morph.GroupOffset{
				Index:     uint32(c.targets[b.Mesh][b.Index]),
				Influence: b.Weight / 100,
			})
		}
		if m := c.materialMorph(name+".material", g.MaterialValues); m != nil {
			group.Group = append(group.Group, morph.GroupOffset{
				Index:     uint32(c.model.Manager.AddMorph(m)),
				Influence: 1,
			})
		}
		c.model.Manager.AddMorph(group)
	}
}

// GLTFToMorph builds a Model from a glTF document. Primitives of all meshes
// share one vertex space in mesh order. Node transforms are ignored.
// VRM 0.x blend shape groups become group morphs.
func GLTFToMorph(src *gltf.Document) (*Model, error) {
	c := &gltfToMorph{
		src:     src,
		model:   &Model{Manager: morph.NewManager()},
		targets: make([][]int, len(src.Meshes)),
	}
	if len(src.Scenes) > 0 {
		c.model.Name = src.Scenes[0].Name
	}
	c.convertMaterials()
	for i, mesh := range src.Meshes {
		if err := c.convertMesh(i, mesh); err != nil {
			return nil, err
		}
	}
	c.model.Manager.SetVertexCount(len(c.model.Positions))
	c.model.Manager.SetMaterialCount(len(c.model.Materials))

	if ext := (*vrm.Document)(src).VRM(); ext != nil {
		c.convertBlendShapes(ext)
	}

	logger.Debug("gltf model loaded",
		zap.Int("vertexes", len(c.model.Positions)),
		zap.Int("faces", len(c.model.Faces)),
		zap.Int("morphs", c.model.Manager.MorphCount()))
	return c.model, nil
}

// ReadGLTF reads glTF or GLB data. External buffers are resolved relative to path.
func ReadGLTF(r io.Reader, path string) (*Model, error) {
	doc, err := vrm.Parse(r, path)
	if err != nil {
		return nil, err
	}
	return GLTFToMorph((*gltf.Document)(doc))
}

// LoadGLTF opens a .gltf/.glb/.vrm file.
func LoadGLTF(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGLTF(f, path)
}
