package morph

import "github.com/binzume/mmdmorph/geom"

// MaterialResult accumulates material morphs for one material.
// The baseline is 1 for every channel; multiply offsets scale it and
// additive offsets are added on top, in application order.
type MaterialResult struct {
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

func NewMaterialResult() MaterialResult {
	var r MaterialResult
	r.Reset()
	return r
}

// Reset restores the baseline.
func (r *MaterialResult) Reset() {
	one3 := geom.Vector3{X: 1, Y: 1, Z: 1}
	one4 := geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}
	*r = MaterialResult{
		Diffuse:          one4,
		Specular:         one3,
		SpecularStrength: 1,
		Ambient:          one3,
		EdgeColor:        one4,
		EdgeSize:         1,
		TextureTint:      one4,
		EnvironmentTint:  one4,
		ToonTint:         one4,
	}
}

// IsIdentity reports whether r is still at the baseline.
func (r *MaterialResult) IsIdentity() bool {
	return *r == NewMaterialResult()
}

// ApplyMultiply folds lerp(1, offset, w) into every channel.
func (r *MaterialResult) ApplyMultiply(o *MaterialOffset, w float32) {
	inv := 1 - w
	mul4(&r.Diffuse, &o.Diffuse, inv, w)
	mul3(&r.Specular, &o.Specular, inv, w)
	r.SpecularStrength *= inv + o.SpecularStrength*w
	mul3(&r.Ambient, &o.Ambient, inv, w)
	mul4(&r.EdgeColor, &o.EdgeColor, inv, w)
	r.EdgeSize *= inv + o.EdgeSize*w
	mul4(&r.TextureTint, &o.TextureTint, inv, w)
	mul4(&r.EnvironmentTint, &o.EnvironmentTint, inv, w)
	mul4(&r.ToonTint, &o.ToonTint, inv, w)
}

// ApplyAdditive adds offset*w to every channel.
func (r *MaterialResult) ApplyAdditive(o *MaterialOffset, w float32) {
	add4(&r.Diffuse, &o.Diffuse, w)
	add3(&r.Specular, &o.Specular, w)
	r.SpecularStrength += o.SpecularStrength * w
	add3(&r.Ambient, &o.Ambient, w)
	add4(&r.EdgeColor, &o.EdgeColor, w)
	r.EdgeSize += o.EdgeSize * w
	add4(&r.TextureTint, &o.TextureTint, w)
	add4(&r.EnvironmentTint, &o.EnvironmentTint, w)
	add4(&r.ToonTint, &o.ToonTint, w)
}

// Apply dispatches on the offset operation. Anything but multiply is additive.
func (r *MaterialResult) Apply(o *MaterialOffset, w float32) {
	if o.Operation == MaterialMultiply {
		r.ApplyMultiply(o, w)
	} else {
		r.ApplyAdditive(o, w)
	}
}

func mul3(v, c *geom.Vector3, inv, w float32) {
	v.X *= inv + c.X*w
	v.Y *= inv + c.Y*w
	v.Z *= inv + c.Z*w
}

func mul4(v, c *geom.Vector4, inv, w float32) {
	v.X *= inv + c.X*w
	v.Y *= inv + c.Y*w
	v.Z *= inv + c.Z*w
	v.W *= inv + c.W*w
}

func add3(v, c *geom.Vector3, w float32) {
	v.X += c.X * w
	v.Y += c.Y * w
	v.Z += c.Z * w
}

func add4(v, c *geom.Vector4, w float32) {
	v.X += c.X * w
	v.Y += c.Y * w
	v.Z += c.Z * w
	v.W += c.W * w
}
