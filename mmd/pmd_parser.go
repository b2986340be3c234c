package mmd

import (
	"fmt"
	"io"
	"strings"
)

// PMDParser is parser for .pmd model.
type PMDParser struct {
	baseParser
	header *Header
}

// NewPMDParser returns new parser.
func NewPMDParser(r io.Reader) *PMDParser {
	return &PMDParser{baseParser: baseParser{r: r}}
}

func (p *PMDParser) readString(len int) string {
	return readSJIS(&p.baseParser, len)
}

func (p *PMDParser) readHeader() error {
	h := p.header
	if h == nil {
		h = &Header{}
		h.Format = make([]byte, 3)
		p.read(&h.Format)
		p.header = h
	}
	if string(h.Format) != "Pmd" {
		return fmt.Errorf("Unsupported format")
	}
	p.read(&h.Version)
	return p.err
}

func (p *PMDParser) readVertex() *Vertex {
	var v Vertex
	p.read(&v.Pos)
	p.read(&v.Normal)
	p.read(&v.UV)

	v.Bones = []int{p.readVInt(2), p.readVInt(2)}
	w := float32(p.readUint8()) / 100
	v.BoneWeights = []float32{w, 1 - w}
	v.EdgeScale = float32(p.readUint8())
	return &v
}

func (p *PMDParser) readMaterial(model *Document, i int) *Material {
	var m Material
	m.Name = fmt.Sprintf("mat%d", i+1)
	p.read(&m.Color)
	p.read(&m.Specularity)
	p.read(&m.Specular)
	p.read(&m.AColor)
	m.Toon = int(p.readUint8())
	m.EdgeScale = float32(p.readUint8())
	m.Count = p.readInt()

	tex := strings.SplitN(p.readString(20), "*", 2)
	if tex[0] != "" {
		m.TextureID = len(model.Textures)
		model.Textures = append(model.Textures, tex...)
	} else {
		m.TextureID = -1
	}

	if m.Color.W < 1 {
		m.Flags = MaterialFlagDoubleSided
	}
	return &m
}

func (p *PMDParser) readBone() *Bone {
	var b Bone
	b.Name = p.readString(20)
	b.ParentID = p.readVInt(2)
	b.TailID = p.readVInt(2)
	if b.TailID == 0 {
		b.TailID = -1
	}
	p.readUint8()
	p.readUint16()
	p.read(&b.Pos)
	return &b
}

func (p *PMDParser) readMorph() *Morph {
	var m Morph
	m.Name = p.readString(20)
	m.MorphType = MorphTypeVertex
	vn := p.readInt()
	p.read(&m.PanelType)
	if vn > maxElements {
		p.fail(fmt.Errorf("too many skin vertexes: %d", vn))
	}
	for i := 0; i < vn && p.err == nil; i++ {
		var mv MorphVertex
		mv.Target = p.readVUInt(4)
		p.read(&mv.Offset)
		m.Vertex = append(m.Vertex, &mv)
	}
	return &m
}

// Parse model data.
func (p *PMDParser) Parse() (*Document, error) {
	var model Document

	if err := p.readHeader(); err != nil {
		return nil, err
	}
	model.Header = p.header
	model.Name = p.readString(20)
	model.Comment = p.readString(256)

	// Vertexes
	n := p.readInt()
	for i := 0; i < n && i < maxElements && p.err == nil; i++ {
		model.Vertexes = append(model.Vertexes, p.readVertex())
	}

	// Faces
	n = p.readInt()
	for i := 0; i < n/3 && i < maxElements && p.err == nil; i++ {
		var f Face
		f.Verts[0] = int(p.readUint16())
		f.Verts[1] = int(p.readUint16())
		f.Verts[2] = int(p.readUint16())
		model.Faces = append(model.Faces, &f)
	}

	// Materials
	n = p.readInt()
	for i := 0; i < n && i < maxElements && p.err == nil; i++ {
		model.Materials = append(model.Materials, p.readMaterial(&model, i))
	}

	// Bones
	n = int(p.readUint16())
	for i := 0; i < n && p.err == nil; i++ {
		model.Bones = append(model.Bones, p.readBone())
	}

	// IK
	n = int(p.readUint16())
	for i := 0; i < n && p.err == nil; i++ {
		bi := int(p.readUint16())
		if bi >= len(model.Bones) {
			p.fail(fmt.Errorf("ik bone %d out of range", bi))
			break
		}
		b := model.Bones[bi]
		b.IK.TargetID = p.readVInt(2)
		ln := int(p.readUint8())
		b.IK.Loop = int(p.readUint16())
		b.IK.LimitRad = p.readFloat()
		for i := 0; i < ln; i++ {
			b.IK.Links = append(b.IK.Links, &Link{TargetID: p.readVInt(2)})
		}
	}

	// Skins. The first one is the base skin and the others are relative to it.
	n = int(p.readUint16())
	if n > 0 && p.err == nil {
		base := p.readMorph()
		for i := 0; i < n-1 && p.err == nil; i++ {
			m := p.readMorph()
			for _, v := range m.Vertex {
				if v.Target >= len(base.Vertex) {
					p.fail(fmt.Errorf("skin %s: base index %d out of range", m.Name, v.Target))
					break
				}
				v.Target = base.Vertex[v.Target].Target
			}
			model.Morphs = append(model.Morphs, m)
		}
	}

	if p.err != nil {
		return nil, fmt.Errorf("pmd: %w", p.err)
	}
	return &model, nil
}
