package motion

// Smoother moves weights toward the values of Source by Factor each frame.
type Smoother struct {
	Source  Driver
	Factor  float32
	current map[string]float32
}

func NewSmoother(source Driver, factor float32) *Smoother {
	if factor <= 0 || factor > 1 {
		factor = 1
	}
	return &Smoother{Source: source, Factor: factor, current: map[string]float32{}}
}

// Weights advances one step. Names missing from Source decay toward 0.
func (s *Smoother) Weights(frame float64) map[string]float32 {
	target := s.Source.Weights(frame)
	for name, w := range target {
		if _, ok := s.current[name]; !ok {
			s.current[name] = 0
		}
		s.current[name] += (w - s.current[name]) * s.Factor
	}
	for name, w := range s.current {
		if _, ok := target[name]; !ok {
			s.current[name] = w * (1 - s.Factor)
		}
	}

	r := make(map[string]float32, len(s.current))
	for name, w := range s.current {
		r[name] = w
	}
	return r
}

func (s *Smoother) Reset() {
	s.current = map[string]float32{}
}
