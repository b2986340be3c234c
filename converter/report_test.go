package converter

import (
	"math"
	"testing"
)

func TestReport(t *testing.T) {
	model := MMDToMorph(testDocument())
	model.Manager.SetMorphWeightByName("stretch", 1)
	model.Manager.SetMorphWeightByName("dark", 0.5)

	r := NewReport(model.Manager, model.Positions, model.Pose())
	if r.Active != 2 || r.Moved != 2 || r.MaterialsHit != 1 || r.UVMoved != 0 {
		t.Error("report: ", r)
	}
	if math.Abs(r.Max-1) > eps || math.Abs(r.Mean-1) > eps || r.StdDev > eps || r.MaxIndex != 2 {
		t.Error("stats: ", r)
	}

	model.Manager.ResetAllWeights()
	r = NewReport(model.Manager, model.Positions, model.Pose())
	if r.Moved != 0 || r.MaxIndex != -1 || r.String() == "" {
		t.Error("empty report: ", r)
	}
}
