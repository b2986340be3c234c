package converter

import (
	"fmt"

	"github.com/binzume/mmdmorph/geom"
	"github.com/binzume/mmdmorph/morph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MoveThreshold is the displacement below which a vertex counts as still.
const MoveThreshold = 1e-6

// Report summarizes the effect of one morph pass.
type Report struct {
	Active       int
	Moved        int
	MaxIndex     int
	Max          float64
	Mean         float64
	StdDev       float64
	UVMoved      int
	MaterialsHit int
}

// NewReport compares morphed positions against base and reads the UV and
// material results of the last pass.
func NewReport(m *morph.Manager, base, morphed []geom.Vector3) *Report {
	r := &Report{MaxIndex: -1}
	for i := 0; i < m.MorphCount(); i++ {
		if geom.Abs(m.MorphWeight(i)) > morph.WeightEpsilon {
			r.Active++
		}
	}

	var dist []float64
	var index []int
	for i := range base {
		if i >= len(morphed) {
			break
		}
		d := float64(morphed[i].Sub(&base[i]).Len())
		if d > MoveThreshold {
			dist = append(dist, d)
			index = append(index, i)
		}
	}
	r.Moved = len(dist)
	if r.Moved > 0 {
		mi := floats.MaxIdx(dist)
		r.Max = dist[mi]
		r.MaxIndex = index[mi]
		r.Mean, r.StdDev = stat.MeanStdDev(dist, nil)
		if r.Moved == 1 {
			r.StdDev = 0
		}
	}

	for _, d := range m.UVDeltas() {
		if d.LenSqr() > 0 {
			r.UVMoved++
		}
	}
	for i := range m.MaterialResults() {
		if !m.MaterialResults()[i].IsIdentity() {
			r.MaterialsHit++
		}
	}
	return r
}

func (r *Report) String() string {
	return fmt.Sprintf("active=%d moved=%d max=%.4f(#%d) mean=%.4f sd=%.4f uv=%d materials=%d",
		r.Active, r.Moved, r.Max, r.MaxIndex, r.Mean, r.StdDev, r.UVMoved, r.MaterialsHit)
}
