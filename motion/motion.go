// Package motion drives morph weights over time.
package motion

import (
	"sort"

	"github.com/binzume/mmdmorph/logger"
	"github.com/binzume/mmdmorph/morph"
	"go.uber.org/zap"
)

// Driver produces morph weights keyed by morph name for a frame.
type Driver interface {
	Weights(frame float64) map[string]float32
}

// Mix sums the weights of several drivers.
type Mix []Driver

func (m Mix) Weights(frame float64) map[string]float32 {
	r := map[string]float32{}
	for _, d := range m {
		for name, w := range d.Weights(frame) {
			r[name] += w
		}
	}
	return r
}

// Static is a fixed set of weights.
type Static map[string]float32

func (s Static) Weights(frame float64) map[string]float32 {
	return s
}

// Apply resets all weights of m and sets those produced by d at frame.
// It returns the names d produced that m does not know, sorted.
func Apply(m *morph.Manager, d Driver, frame float64) []string {
	m.ResetAllWeights()
	var missing []string
	for name, w := range d.Weights(frame) {
		if !m.SetMorphWeightByName(name, w) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		logger.Debug("unknown morphs", zap.Float64("frame", frame), zap.Strings("names", missing))
	}
	return missing
}
