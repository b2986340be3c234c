package mmd

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const vmdFormat = "Vocaloid Motion Data 0002"

// VMDParser is parser for .vmd animation.
type VMDParser struct {
	baseParser
}

type Animation struct {
	Name  string
	Bone  []*AnimationBoneSample
	Morph []*AnimationMorphSample
}

type AnimationBoneSample struct {
	Target   string
	Frame    int
	Position Vector3
	Rotation Vector4
	Params   [64]byte
}

type AnimationMorphSample struct {
	Target string
	Frame  int
	Value  float32
}

// MorphChannel is the keyframes of a single morph, ordered by frame.
type MorphChannel struct {
	Target  string
	Frames  []uint32
	Samples []float32
}

// Sample returns the weight at frame with linear interpolation.
// Frames outside the keyed range hold the first or last value.
func (c *MorphChannel) Sample(frame float64) float32 {
	n := len(c.Frames)
	if n == 0 {
		return 0
	}
	if frame <= float64(c.Frames[0]) {
		return c.Samples[0]
	}
	if frame >= float64(c.Frames[n-1]) {
		return c.Samples[n-1]
	}
	i := sort.Search(n, func(i int) bool { return float64(c.Frames[i]) > frame })
	f0, f1 := float64(c.Frames[i-1]), float64(c.Frames[i])
	t := float32((frame - f0) / (f1 - f0))
	return c.Samples[i-1]*(1-t) + c.Samples[i]*t
}

// GetMorphChannels groups morph samples by target name.
func (a *Animation) GetMorphChannels() map[string]*MorphChannel {
	sort.SliceStable(a.Morph, func(i, j int) bool { return a.Morph[i].Frame < a.Morph[j].Frame })

	r := map[string]*MorphChannel{}
	for _, s := range a.Morph {
		a, ok := r[s.Target]
		if !ok {
			a = &MorphChannel{Target: s.Target}
			r[s.Target] = a
		}
		if n := len(a.Frames); n > 0 && a.Frames[n-1] == uint32(s.Frame) {
			// last key wins
			a.Samples[n-1] = s.Value
			continue
		}
		a.Frames = append(a.Frames, uint32(s.Frame))
		a.Samples = append(a.Samples, s.Value)
	}
	return r
}

// NewVMDParser returns new parser.
func NewVMDParser(r io.Reader) *VMDParser {
	return &VMDParser{baseParser: baseParser{r: r}}
}

// Parse animation data.
func (p *VMDParser) Parse() (*Animation, error) {
	var anim Animation

	formatName := p.readString(30)
	if p.err != nil {
		return nil, p.err
	}
	if formatName != vmdFormat {
		return nil, fmt.Errorf("Format error: %v != %v", formatName, vmdFormat)
	}

	anim.Name = p.readString(20)

	frames := p.readInt()
	for i := 0; i < frames && i < maxElements && p.err == nil; i++ {
		sample := &AnimationBoneSample{}
		sample.Target = p.readString(15)
		sample.Frame = p.readInt()
		p.read(&sample.Position)
		p.read(&sample.Rotation)
		p.read(&sample.Params)
		anim.Bone = append(anim.Bone, sample)
	}

	frames = p.readInt()
	for i := 0; i < frames && i < maxElements && p.err == nil; i++ {
		sample := &AnimationMorphSample{}
		sample.Target = p.readString(15)
		sample.Frame = p.readInt()
		p.read(&sample.Value)
		anim.Morph = append(anim.Morph, sample)
	}

	if p.err != nil {
		return nil, fmt.Errorf("vmd: %w", p.err)
	}
	return &anim, nil
}

func (p *VMDParser) readString(len int) string {
	return readSJIS(&p.baseParser, len)
}

func readSJIS(p *baseParser, len int) string {
	b := make([]byte, len)
	p.read(b)
	utf8Data, _, _ := transform.Bytes(japanese.ShiftJIS.NewDecoder(), bytes.SplitN(b, []byte{0}, 2)[0])
	return string(utf8Data)
}
