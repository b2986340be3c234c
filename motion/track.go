package motion

import "github.com/binzume/mmdmorph/mmd"

// Track plays the morph keyframes of a VMD motion.
type Track struct {
	channels map[string]*mmd.MorphChannel
	last     uint32
}

func NewTrack(anim *mmd.Animation) *Track {
	t := &Track{channels: anim.GetMorphChannels()}
	for _, ch := range t.channels {
		if n := len(ch.Frames); n > 0 && ch.Frames[n-1] > t.last {
			t.last = ch.Frames[n-1]
		}
	}
	return t
}

// LastFrame returns the last keyed frame.
func (t *Track) LastFrame() uint32 {
	return t.last
}

func (t *Track) Names() []string {
	names := make([]string, 0, len(t.channels))
	for name := range t.channels {
		names = append(names, name)
	}
	return names
}

func (t *Track) Weights(frame float64) map[string]float32 {
	r := make(map[string]float32, len(t.channels))
	for name, ch := range t.channels {
		r[name] = ch.Sample(frame)
	}
	return r
}
