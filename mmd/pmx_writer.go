package mmd

import (
	"encoding/binary"
	"fmt"
	"io"
)

type baseWriter struct {
	w   io.Writer
	err error
}

func (p *baseWriter) write(v interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.err = binary.Write(p.w, binary.LittleEndian, v)
	return p.err
}

func (p *baseWriter) writeUint8(v uint8) {
	p.write(&v)
}

func (p *baseWriter) writeInt(v int) {
	vv := int32(v)
	p.write(&vv)
}

func (p *baseWriter) writeFloat(v float32) {
	p.write(&v)
}

func (p *baseWriter) writeVUInt(sz byte, vv int) {
	switch sz {
	case 1:
		p.write(uint8(vv))
	case 2:
		p.write(uint16(vv))
	case 4:
		p.write(uint32(vv))
	}
}

func (p *baseWriter) writeVInt(sz byte, vv int) {
	switch sz {
	case 1:
		p.write(int8(vv))
	case 2:
		p.write(int16(vv))
	case 4:
		p.write(int32(vv))
	}
}

// PMXWriter is writer for .pmx data
type PMXWriter struct {
	baseWriter
	header *Header
}

func (w *PMXWriter) Write(doc *Document) error {
	// header
	w.writeHeader(doc)
	w.writeText(doc.Name)
	w.writeText(doc.NameEn)
	w.writeText(doc.Comment)
	w.writeText(doc.CommentEn)

	// vertexes
	w.writeInt(len(doc.Vertexes))
	for _, v := range doc.Vertexes {
		w.writeVertex(v)
	}

	// faces
	w.writeInt(len(doc.Faces) * 3)
	for _, f := range doc.Faces {
		w.writeFace(f)
	}

	// textures
	w.writeInt(len(doc.Textures))
	for _, t := range doc.Textures {
		w.writeText(t)
	}

	// materials
	w.writeInt(len(doc.Materials))
	for _, m := range doc.Materials {
		w.writeMaterial(m)
	}

	// bones
	w.writeInt(len(doc.Bones))
	for _, b := range doc.Bones {
		w.writeBone(b)
	}

	// morphs
	w.writeInt(len(doc.Morphs))
	for _, m := range doc.Morphs {
		w.writeMorph(m)
	}

	// display frames, rigid bodies and joints are not kept.
	w.writeInt(0)
	w.writeInt(0)
	w.writeInt(0)

	return w.err
}

func (w *PMXWriter) writeText(v string) {
	w.writeInt(len(v))
	w.write([]byte(v))
}

func (w *PMXWriter) writeIndex(attrTyp int, v int) {
	w.writeVInt(w.header.Info[attrTyp], v)
}

func (w *PMXWriter) writeUIndex(attrTyp int, v int) {
	w.writeVUInt(w.header.Info[attrTyp], v)
}

func signedIndexSize(n int) byte {
	if n < 1<<7 {
		return 1
	} else if n < 1<<15 {
		return 2
	}
	return 4
}

func unsignedIndexSize(n int) byte {
	if n < 1<<8 {
		return 1
	} else if n < 1<<16 {
		return 2
	}
	return 4
}

// maxExtUV is the number of additional UV channels PMX 2.x allows.
const maxExtUV = 4

func maxImpulseTarget(doc *Document) int {
	n := 0
	for _, m := range doc.Morphs {
		for _, o := range m.Impulse {
			if o.Target > n {
				n = o.Target
			}
		}
	}
	return n
}

func (w *PMXWriter) writeHeader(doc *Document) {
	h := &Header{Format: []byte("PMX "), Version: 2, Info: make([]byte, 8)}
	if doc.Header != nil && doc.Header.Version != 0 {
		h.Version = doc.Header.Version
	}
	extUV := 0
	for _, v := range doc.Vertexes {
		if len(v.ExtUVs) > extUV {
			extUV = len(v.ExtUVs)
		}
	}
	if extUV > maxExtUV {
		extUV = maxExtUV
	}
	h.Info[AttrStringEncoding] = 1
	h.Info[AttrExtUV] = byte(extUV)
	h.Info[AttrVertIndexSz] = unsignedIndexSize(len(doc.Vertexes))
	h.Info[AttrTexIndexSz] = signedIndexSize(len(doc.Textures))
	h.Info[AttrMatIndexSz] = signedIndexSize(len(doc.Materials))
	h.Info[AttrBoneIndexSz] = signedIndexSize(len(doc.Bones))
	h.Info[AttrMorphIndexSz] = signedIndexSize(len(doc.Morphs))
	// rigid bodies are not written; impulse morph targets still need room
	h.Info[AttrRBIndexSz] = signedIndexSize(maxImpulseTarget(doc) + 1)
	w.header = h

	w.write(h.Format)
	w.write(&h.Version)
	w.writeUint8(uint8(len(h.Info)))
	w.write(h.Info)
}

func (w *PMXWriter) writeVertex(v *Vertex) {
	w.write(&v.Pos)
	w.write(&v.Normal)
	w.write(&v.UV)
	// pad or trim to the header count
	for i := 0; i < int(w.header.Info[AttrExtUV]); i++ {
		if i < len(v.ExtUVs) {
			w.write(&v.ExtUVs[i])
		} else {
			w.write(&Vector4{})
		}
	}

	if len(v.Bones) < len(v.BoneWeights) {
		if w.err == nil {
			w.err = fmt.Errorf("vertex has %d bones for %d weights", len(v.Bones), len(v.BoneWeights))
		}
		return
	}
	switch len(v.BoneWeights) {
	case 1:
		w.writeUint8(0)
		w.writeIndex(AttrBoneIndexSz, v.Bones[0])
	case 2:
		w.writeUint8(1)
		w.writeIndex(AttrBoneIndexSz, v.Bones[0])
		w.writeIndex(AttrBoneIndexSz, v.Bones[1])
		w.writeFloat(v.BoneWeights[0])
	case 4:
		w.writeUint8(2)
		for _, b := range v.Bones[:4] {
			w.writeIndex(AttrBoneIndexSz, b)
		}
		w.write(v.BoneWeights)
	default:
		if w.err == nil {
			w.err = fmt.Errorf("unsupported bone weight count %d", len(v.BoneWeights))
		}
	}
	w.write(&v.EdgeScale)
}

func (w *PMXWriter) writeFace(f *Face) {
	w.writeUIndex(AttrVertIndexSz, f.Verts[0])
	w.writeUIndex(AttrVertIndexSz, f.Verts[1])
	w.writeUIndex(AttrVertIndexSz, f.Verts[2])
}

func (w *PMXWriter) writeMaterial(m *Material) {
	w.writeText(m.Name)
	w.writeText(m.NameEn)
	w.write(&m.Color)
	w.write(&m.Specular)
	w.write(&m.Specularity)
	w.write(&m.AColor)
	w.write(&m.Flags)
	w.write(&m.EdgeColor)
	w.write(&m.EdgeScale)

	w.writeIndex(AttrTexIndexSz, m.TextureID)
	w.writeIndex(AttrTexIndexSz, m.EnvID)

	w.write(&m.EnvMode)
	w.write(&m.ToonType)
	if m.ToonType == 0 {
		w.writeIndex(AttrTexIndexSz, m.Toon)
	} else {
		w.writeUint8(uint8(m.Toon))
	}

	w.writeText(m.Memo)
	w.writeInt(m.Count)
}

func (w *PMXWriter) writeBone(b *Bone) {
	w.writeText(b.Name)
	w.writeText(b.NameEn)
	w.write(&b.Pos)

	w.writeIndex(AttrBoneIndexSz, b.ParentID)
	w.writeInt(b.Layer)

	flags := b.Flags & BoneFlagAll
	w.write(&flags)

	if flags&BoneFlagTailIndex != 0 {
		w.writeIndex(AttrBoneIndexSz, b.TailID)
	} else {
		w.write(&b.TailPos)
	}

	if flags&BoneFlagInheritRotation != 0 || flags&BoneFlagInheritTranslation != 0 {
		w.writeIndex(AttrBoneIndexSz, b.InheritParentID)
		w.write(&b.InheritParentInfluence)
	}

	if flags&BoneFlagFixedAxis != 0 {
		w.write(&b.FixedAxis)
	}

	if flags&BoneFlagLocalAxis != 0 {
		var dummy Vector3
		w.write(&dummy)
		w.write(&dummy)
	}

	if flags&BoneFlagExternalParent != 0 {
		w.writeIndex(AttrBoneIndexSz, -1)
	}

	if flags&BoneFlagEnableIK != 0 {
		w.writeIndex(AttrBoneIndexSz, b.IK.TargetID)
		w.writeInt(b.IK.Loop)
		w.write(&b.IK.LimitRad)
		w.writeInt(len(b.IK.Links))
		for _, l := range b.IK.Links {
			w.writeIndex(AttrBoneIndexSz, l.TargetID)
			if l.HasLimit {
				w.writeUint8(1)
				w.write(&l.LimitMin)
				w.write(&l.LimitMax)
			} else {
				w.writeUint8(0)
			}
		}
	}
}

func (w *PMXWriter) writeMorph(m *Morph) {
	w.writeText(m.Name)
	w.writeText(m.NameEn)
	w.write(&m.PanelType)
	w.write(&m.MorphType)

	// oneof
	w.writeInt(m.Len())

	for _, m := range m.Group {
		w.writeIndex(AttrMorphIndexSz, m.Target)
		w.write(&m.Weight)
	}
	for _, m := range m.Vertex {
		w.writeUIndex(AttrVertIndexSz, m.Target)
		w.write(&m.Offset)
	}
	for _, m := range m.Bone {
		w.writeIndex(AttrBoneIndexSz, m.Target)
		w.write(&m.Translation)
		w.write(&m.Rotation)
	}
	for _, m := range m.UV {
		w.writeUIndex(AttrVertIndexSz, m.Target)
		w.write(&m.Value)
	}
	for _, m := range m.Material {
		w.writeIndex(AttrMatIndexSz, m.Target)
		w.write(&m.Flags)
		w.write(&m.Diffuse)
		w.write(&m.Specular)
		w.write(&m.Specularity)
		w.write(&m.Ambient)
		w.write(&m.EdgeColor)
		w.write(&m.EdgeSize)
		w.write(&m.TextureTint)
		w.write(&m.EnvironmentTint)
		w.write(&m.ToonTint)
	}
	for _, m := range m.Impulse {
		w.writeIndex(AttrRBIndexSz, m.Target)
		w.write(&m.Local)
		w.write(&m.Velocity)
		w.write(&m.Torque)
	}
}

// WritePMX writes .pmx data
func WritePMX(doc *Document, w io.Writer) error {
	return (&PMXWriter{baseWriter: baseWriter{w: w}}).Write(doc)
}
