package preview

import (
	"math"

	"github.com/binzume/mmdmorph/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is an orthographic camera orbiting the bounding sphere of a model.
// Yaw 0 and Pitch 0 look at the front of an MMD model (from -Z).
type Camera struct {
	Yaw    float32 // degrees
	Pitch  float32 // degrees
	Center mgl32.Vec3
	Radius float32
}

// Fit sets Center and Radius to enclose positions.
func (c *Camera) Fit(positions []geom.Vector3) {
	if len(positions) == 0 {
		c.Center, c.Radius = mgl32.Vec3{}, 1
		return
	}
	min := mgl32.Vec3{positions[0].X, positions[0].Y, positions[0].Z}
	max := min
	for _, p := range positions[1:] {
		v := mgl32.Vec3{p.X, p.Y, p.Z}
		for i := 0; i < 3; i++ {
			min[i] = float32(math.Min(float64(min[i]), float64(v[i])))
			max[i] = float32(math.Max(float64(max[i]), float64(v[i])))
		}
	}
	c.Center = min.Add(max).Mul(0.5)
	c.Radius = max.Sub(min).Len() * 0.5 * 1.05
	if c.Radius <= 0 {
		c.Radius = 1
	}
}

// ViewDir returns the unit vector from the center toward the eye.
func (c *Camera) ViewDir() mgl32.Vec3 {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(-math.Cos(yaw) * math.Cos(pitch)),
	}
}

// ViewProjection maps model space to clip space.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	dist := c.Radius * 2
	eye := c.Center.Add(c.ViewDir().Mul(dist))
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(c.Pitch)) >= 89.9 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, c.Center, up)
	proj := mgl32.Ortho(-c.Radius, c.Radius, -c.Radius, c.Radius, 0, dist*2)
	return proj.Mul4(view)
}
