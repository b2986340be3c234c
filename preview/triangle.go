package preview

import (
	"image/color"
	"math"
)

// screenVertex is a vertex in pixel coordinates. Z is larger when closer.
type screenVertex struct {
	X, Y, Z float64
}

// shadeFunc returns the color at barycentric (w0, w1, w2). Pixels with ok == false are not drawn.
type shadeFunc func(w0, w1, w2 float64) (c color.NRGBA, ok bool)

func flatShade(c color.NRGBA) shadeFunc {
	return func(w0, w1, w2 float64) (color.NRGBA, bool) {
		return c, true
	}
}

// rasterizeTriangle fills a triangle, testing and updating the z-buffer.
func rasterizeTriangle(fb *FrameBuffer, v [3]screenVertex, shade shadeFunc) {
	x0, y0, z0 := v[0].X, v[0].Y, v[0].Z
	x1, y1, z1 := v[1].X, v[1].Y, v[1].Z
	x2, y2, z2 := v[2].X, v[2].Y, v[2].Z

	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))
	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		// sample at pixel centers
		dsy := float64(sy) + 0.5 - y2
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			i := row + sx
			if z <= fb.ZBuf[i] {
				continue
			}
			c, ok := shade(w0, w1, w2)
			if !ok {
				continue
			}
			fb.ZBuf[i] = z
			p := i * 4
			fb.Color[p] = c.R
			fb.Color[p+1] = c.G
			fb.Color[p+2] = c.B
			fb.Color[p+3] = c.A
		}
	}
}
