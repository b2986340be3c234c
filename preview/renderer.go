// Package preview renders shaded, optionally textured images of a morphed model.
package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/binzume/mmdmorph/converter"
	"github.com/binzume/mmdmorph/geom"
	"github.com/go-gl/mathgl/mgl32"
)

type Renderer struct {
	Size        int
	Supersample int
	Background  color.NRGBA
	Camera      Camera
	// Joints draws a marker at each bone position.
	Joints bool
	// Textures is indexed by material. nil entries render with the flat material color.
	Textures []image.Image

	Ambient float64
	Diffuse float64
}

func NewRenderer(size, supersample int) *Renderer {
	if supersample < 1 {
		supersample = 1
	}
	return &Renderer{
		Size:        size,
		Supersample: supersample,
		Background:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Ambient:     0.35,
		Diffuse:     0.65,
	}
}

func to8(v float32, shade float64) uint8 {
	f := float64(v) * shade * 255
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f + 0.5)
}

func (r *Renderer) project(vp mgl32.Mat4, size int, p geom.Vector3) screenVertex {
	c := vp.Mul4x1(mgl32.Vec4{p.X, p.Y, p.Z, 1})
	return screenVertex{
		X: (float64(c[0]) + 1) * 0.5 * float64(size),
		Y: (1 - float64(c[1])) * 0.5 * float64(size),
		Z: -float64(c[2]),
	}
}

// Render draws the model with the given (already morphed) positions and the
// material results of the last morph pass. Call Camera.Fit first.
func (r *Renderer) Render(model *converter.Model, positions []geom.Vector3) *image.NRGBA {
	size := r.Size * r.Supersample
	fb := NewFrameBuffer(size, size, r.Background)
	vp := r.Camera.ViewProjection()
	view := r.Camera.ViewDir()
	light := [3]float64{float64(view[0]), float64(view[1]), float64(view[2])}

	screen := make([]screenVertex, len(positions))
	for i, p := range positions {
		screen[i] = r.project(vp, size, p)
	}

	uvs := model.MorphedUVs()
	samplers := make([]*sampler, len(model.Materials)+1)
	for i := range model.Materials {
		if i < len(r.Textures) {
			samplers[i] = newSampler(r.Textures[i])
		}
	}

	colors := make([]geom.Vector4, len(model.Materials)+1)
	for i := range model.Materials {
		colors[i] = model.MaterialColor(i)
	}
	colors[len(model.Materials)] = geom.Vector4{X: 0.8, Y: 0.8, Z: 0.8, W: 1}

	for fi, f := range model.Faces {
		if f[0] >= len(positions) || f[1] >= len(positions) || f[2] >= len(positions) {
			continue
		}
		mat := model.FaceMaterials[fi]
		if mat < 0 || mat >= len(model.Materials) {
			mat = len(model.Materials)
		}
		c := colors[mat]
		if c.W <= 0.001 {
			continue
		}

		a, b, d := positions[f[0]], positions[f[1]], positions[f[2]]
		n := b.Sub(&a).Cross(d.Sub(&a))
		if n.LenSqr() == 0 {
			continue
		}
		n.Normalize()
		ndl := math.Abs(float64(n.X)*light[0] + float64(n.Y)*light[1] + float64(n.Z)*light[2])
		shade := r.Ambient + r.Diffuse*ndl

		alpha := c.W
		if alpha > 1 {
			alpha = 1
		}
		sv := [3]screenVertex{screen[f[0]], screen[f[1]], screen[f[2]]}
		s := samplers[mat]
		if s == nil || f[0] >= len(uvs) || f[1] >= len(uvs) || f[2] >= len(uvs) {
			rasterizeTriangle(fb, sv, flatShade(color.NRGBA{to8(c.X, shade), to8(c.Y, shade), to8(c.Z, shade), to8(alpha, 1)}))
			continue
		}
		t := [3]geom.Vector2{uvs[f[0]], uvs[f[1]], uvs[f[2]]}
		rasterizeTriangle(fb, sv, func(w0, w1, w2 float64) (color.NRGBA, bool) {
			u := w0*float64(t[0].X) + w1*float64(t[1].X) + w2*float64(t[2].X)
			v := w0*float64(t[0].Y) + w1*float64(t[1].Y) + w2*float64(t[2].Y)
			tc := s.at(u, v)
			a := float64(tc.A) / 255 * float64(alpha)
			if a <= 0.001 {
				return color.NRGBA{}, false
			}
			return color.NRGBA{
				R: to8(c.X, shade*float64(tc.R)/255),
				G: to8(c.Y, shade*float64(tc.G)/255),
				B: to8(c.Z, shade*float64(tc.B)/255),
				A: to8(1, a),
			}, true
		})
	}

	if r.Joints && model.Skeleton != nil {
		r.drawJoints(fb, vp, size, model.Skeleton.Positions())
	}

	img := fb.Image()
	if r.Supersample > 1 {
		img = Downsample(img, r.Size)
	}
	return img
}

func (r *Renderer) drawJoints(fb *FrameBuffer, vp mgl32.Mat4, size int, joints []geom.Vector3) {
	half := r.Supersample * 2
	for _, j := range joints {
		s := r.project(vp, size, j)
		cx, cy := int(s.X), int(s.Y)
		for y := cy - half; y <= cy+half; y++ {
			for x := cx - half; x <= cx+half; x++ {
				if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
					continue
				}
				p := (y*fb.Width + x) * 4
				fb.Color[p], fb.Color[p+1], fb.Color[p+2], fb.Color[p+3] = 255, 0, 0, 255
			}
		}
	}
}
