package mmd

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf16"
)

// see also:
// https://github.com/binzume/mikumikudroid/blob/oculus/src/jp/gauzau/MikuMikuDroid/PMXParser.java
// https://gist.github.com/felixjones/f8a06bd48f9da9a4539f

const maxElements = 1 << 24

// PMXParser is parser for .pmx model.
type PMXParser struct {
	baseParser
	header *Header
}

// NewPMXParser returns new parser.
func NewPMXParser(r io.Reader) *PMXParser {
	return &PMXParser{baseParser: baseParser{r: r}}
}

func (p *PMXParser) readIndex(attrTyp int) int {
	return p.readVInt(p.header.Info[attrTyp])
}

func (p *PMXParser) readUIndex(attrTyp int) int {
	return p.readVUInt(p.header.Info[attrTyp])
}

func (p *PMXParser) readCount(what string) int {
	n := p.readInt()
	if n > maxElements {
		p.fail(fmt.Errorf("too many %s: %d", what, n))
		return 0
	}
	return n
}

func (p *PMXParser) readText() string {
	len := p.readCount("bytes")
	if p.err != nil {
		return ""
	}

	if p.header.Info[AttrStringEncoding] == 0 {
		utf16data := make([]uint16, len/2)
		p.read(&utf16data)
		return string(utf16.Decode(utf16data))
	} else {
		data := make([]byte, len)
		p.read(&data)
		return string(data)
	}
}

func (p *PMXParser) readHeader() error {
	var h = p.header
	if h == nil {
		h = &Header{}
		h.Format = make([]byte, 4)
		p.read(&h.Format)
		p.header = h
	}
	if string(h.Format) != "PMX " {
		return fmt.Errorf("Unsupported file")
	}
	p.read(&h.Version)
	h.Info = make([]byte, p.readUint8())
	p.read(&h.Info)
	if len(h.Info) <= AttrRBIndexSz {
		return fmt.Errorf("broken header: %d attributes", len(h.Info))
	}
	if h.Info[AttrExtUV] > maxExtUV {
		return fmt.Errorf("broken header: %d additional uvs", h.Info[AttrExtUV])
	}
	return p.err
}

func (p *PMXParser) readVertex() *Vertex {
	var v Vertex
	p.read(&v.Pos)
	p.read(&v.Normal)
	p.read(&v.UV)
	v.ExtUVs = make([]Vector4, p.header.Info[AttrExtUV])
	p.read(&v.ExtUVs)
	wehghtType := p.readUint8()
	if wehghtType == 0 {
		v.Bones = []int{p.readIndex(AttrBoneIndexSz)}
		v.BoneWeights = []float32{1}
	} else if wehghtType == 1 {
		v.Bones = []int{p.readIndex(AttrBoneIndexSz), p.readIndex(AttrBoneIndexSz)}
		w := p.readFloat()
		v.BoneWeights = []float32{w, 1 - w}
	} else if wehghtType == 2 {
		v.Bones = []int{
			p.readIndex(AttrBoneIndexSz),
			p.readIndex(AttrBoneIndexSz),
			p.readIndex(AttrBoneIndexSz),
			p.readIndex(AttrBoneIndexSz),
		}
		v.BoneWeights = []float32{
			p.readFloat(),
			p.readFloat(),
			p.readFloat(),
			p.readFloat(),
		}
	} else if wehghtType == 3 {
		// SDEF is read as BDEF2
		v.Bones = []int{p.readIndex(AttrBoneIndexSz), p.readIndex(AttrBoneIndexSz)}
		w := p.readFloat()
		v.BoneWeights = []float32{w, 1 - w}
		p.read(&Vector3{})
		p.read(&Vector3{})
		p.read(&Vector3{})
	} else {
		p.fail(fmt.Errorf("unknown weight type %d", wehghtType))
	}
	v.EdgeScale = p.readFloat()
	return &v
}

func (p *PMXParser) readFace() *Face {
	var f Face
	f.Verts[0] = p.readUIndex(AttrVertIndexSz)
	f.Verts[1] = p.readUIndex(AttrVertIndexSz)
	f.Verts[2] = p.readUIndex(AttrVertIndexSz)
	return &f
}

func (p *PMXParser) readMaterial() *Material {
	var m Material
	m.Name = p.readText()
	m.NameEn = p.readText()
	p.read(&m.Color)
	p.read(&m.Specular)
	p.read(&m.Specularity)
	p.read(&m.AColor)
	p.read(&m.Flags)
	p.read(&m.EdgeColor)
	p.read(&m.EdgeScale)
	m.TextureID = p.readVInt(p.header.Info[AttrTexIndexSz])
	m.EnvID = p.readVInt(p.header.Info[AttrTexIndexSz])
	p.read(&m.EnvMode)
	p.read(&m.ToonType)
	if m.ToonType == 0 {
		m.Toon = p.readVInt(p.header.Info[AttrTexIndexSz])
	} else {
		m.Toon = int(p.readUint8())
	}
	m.Memo = p.readText()
	m.Count = p.readInt()
	return &m
}

func (p *PMXParser) readBone() *Bone {
	var b Bone
	b.Name = p.readText()
	b.NameEn = p.readText()
	p.read(&b.Pos)
	b.ParentID = p.readIndex(AttrBoneIndexSz)
	b.Layer = p.readInt()
	p.read(&b.Flags)

	if b.Flags&BoneFlagTailIndex != 0 {
		b.TailID = p.readIndex(AttrBoneIndexSz)
	} else {
		b.TailID = -1
		p.read(&b.TailPos)
	}

	if b.Flags&BoneFlagInheritRotation != 0 || b.Flags&BoneFlagInheritTranslation != 0 {
		b.InheritParentID = p.readIndex(AttrBoneIndexSz)
		b.InheritParentInfluence = p.readFloat()
	}

	if b.Flags&BoneFlagFixedAxis != 0 {
		p.read(&b.FixedAxis)
	}

	if b.Flags&BoneFlagLocalAxis != 0 {
		var dummy Vector3
		p.read(&dummy)
		p.read(&dummy)
	}

	if b.Flags&BoneFlagExternalParent != 0 {
		p.readIndex(AttrBoneIndexSz)
	}

	if b.Flags&BoneFlagEnableIK != 0 {
		b.IK.TargetID = p.readIndex(AttrBoneIndexSz)
		b.IK.Loop = p.readInt()
		b.IK.LimitRad = p.readFloat()
		links := p.readCount("ik links")
		for i := 0; i < links && p.err == nil; i++ {
			var l Link
			l.TargetID = p.readIndex(AttrBoneIndexSz)
			l.HasLimit = p.readUint8() != 0
			if l.HasLimit {
				p.read(&l.LimitMin)
				p.read(&l.LimitMax)
			}
			b.IK.Links = append(b.IK.Links, &l)
		}
	}

	return &b
}

func (p *PMXParser) readMorph() *Morph {
	var m Morph
	m.Name = p.readText()
	m.NameEn = p.readText()
	m.PanelType = p.readUint8()
	m.MorphType = p.readUint8()

	n := p.readCount("morph offsets")

	for i := 0; i < n && p.err == nil; i++ {
		switch m.MorphType {
		case MorphTypeGroup, MorphTypeFlip:
			m.Group = append(m.Group, &MorphGroup{
				Target: p.readIndex(AttrMorphIndexSz),
				Weight: p.readFloat(),
			})
		case MorphTypeVertex:
			var v MorphVertex
			v.Target = p.readUIndex(AttrVertIndexSz)
			p.read(&v.Offset)
			m.Vertex = append(m.Vertex, &v)
		case MorphTypeBone:
			var v MorphBone
			v.Target = p.readIndex(AttrBoneIndexSz)
			p.read(&v.Translation)
			p.read(&v.Rotation)
			m.Bone = append(m.Bone, &v)
		case MorphTypeUV, MorphTypeExtUV1, MorphTypeExtUV1 + 1, MorphTypeExtUV1 + 2, MorphTypeExtUV4:
			var v MorphUV
			v.Target = p.readUIndex(AttrVertIndexSz)
			p.read(&v.Value)
			m.UV = append(m.UV, &v)
		case MorphTypeMaterial:
			var v MorphMaterial
			v.Target = p.readIndex(AttrMatIndexSz)
			p.read(&v.Flags)
			p.read(&v.Diffuse)
			p.read(&v.Specular)
			p.read(&v.Specularity)
			p.read(&v.Ambient)
			p.read(&v.EdgeColor)
			p.read(&v.EdgeSize)
			p.read(&v.TextureTint)
			p.read(&v.EnvironmentTint)
			p.read(&v.ToonTint)
			m.Material = append(m.Material, &v)
		case MorphTypeImpulse:
			var v MorphImpulse
			v.Target = p.readIndex(AttrRBIndexSz)
			v.Local = p.readUint8()
			p.read(&v.Velocity)
			p.read(&v.Torque)
			m.Impulse = append(m.Impulse, &v)
		default:
			p.fail(fmt.Errorf("unknown morph type %d (%s)", m.MorphType, m.Name))
		}
	}

	return &m
}

func (p *PMXParser) Parse() (*Document, error) {
	var pmx Document

	if err := p.readHeader(); err != nil {
		return nil, err
	}

	pmx.Header = p.header
	pmx.Name = p.readText()
	pmx.NameEn = p.readText()
	pmx.Comment = p.readText()
	pmx.CommentEn = p.readText()

	vn := p.readCount("vertexes")
	for i := 0; i < vn && p.err == nil; i++ {
		pmx.Vertexes = append(pmx.Vertexes, p.readVertex())
	}

	fn := p.readCount("faces") / 3
	for i := 0; i < fn && p.err == nil; i++ {
		pmx.Faces = append(pmx.Faces, p.readFace())
	}

	tn := p.readCount("textures")
	for i := 0; i < tn && p.err == nil; i++ {
		pmx.Textures = append(pmx.Textures, p.readText())
	}

	mn := p.readCount("materials")
	for i := 0; i < mn && p.err == nil; i++ {
		pmx.Materials = append(pmx.Materials, p.readMaterial())
	}

	bn := p.readCount("bones")
	for i := 0; i < bn && p.err == nil; i++ {
		pmx.Bones = append(pmx.Bones, p.readBone())
	}

	pn := p.readCount("morphs")
	for i := 0; i < pn && p.err == nil; i++ {
		pmx.Morphs = append(pmx.Morphs, p.readMorph())
	}

	if p.err != nil {
		return nil, fmt.Errorf("pmx: %w", p.err)
	}
	return &pmx, nil
}

// Parse reads .pmx or .pmd data.
func Parse(r io.Reader) (*Document, error) {
	// check format
	format := make([]byte, 4)
	if _, err := io.ReadFull(r, format[:3]); err != nil {
		return nil, err
	}

	if string(format[:3]) == "Pmd" {
		p := NewPMDParser(bufio.NewReader(r))
		p.header = &Header{Format: format[:3]}
		return p.Parse()
	} else {
		if _, err := io.ReadFull(r, format[3:]); err != nil {
			return nil, err
		}
		p := NewPMXParser(bufio.NewReader(r))
		p.header = &Header{Format: format}
		return p.Parse()
	}
}

