package geom

import "math"

func Abs(v Element) Element {
	return Element(math.Abs(float64(v)))
}

