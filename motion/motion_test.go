package motion

import (
	"math"
	"testing"

	"github.com/binzume/mmdmorph/mmd"
	"github.com/binzume/mmdmorph/morph"
	"go.uber.org/multierr"
)

const eps = 0.0001

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < eps
}

func TestExpression(t *testing.T) {
	cases := []struct {
		src   string
		frame float64
		want  float32
	}{
		{"1", 0, 1},
		{"frame / 10", 5, 0.5},
		{"t", 15, 0.5},
		{"clamp(frame - 2, 0, 1)", 10, 1},
		{"clamp(frame - 2, 0, 1)", 0, 0},
		{"abs(cos(t * 3.141592653589793))", 30, 1},
		{"sin(0)", 7, 0},
		{"frame > 10", 11, 1},
	}
	for _, c := range cases {
		e, err := NewExpression(c.src)
		if err != nil {
			t.Error(c.src, err)
			continue
		}
		w, err := e.Eval(c.frame, DefaultFPS)
		if err != nil || !near(w, c.want) {
			t.Error(c.src, c.frame, w, c.want, err)
		}
	}
}

func TestExpressionErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "speed * 2"} {
		if _, err := NewExpression(src); err == nil {
			t.Error("expected error: ", src)
		}
	}
	e, err := NewExpression("clamp(1)")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Eval(0, DefaultFPS); err == nil {
		t.Error("expected error for bad arguments")
	}
}

func TestExpressionSet(t *testing.T) {
	_, err := NewExpressionSet(map[string]string{"a": "1 +", "b": "x", "c": "1"}, 0)
	if n := len(multierr.Errors(err)); n != 2 {
		t.Error("expected 2 errors: ", err)
	}

	s, err := NewExpressionSet(map[string]string{"smile": "frame / 60", "bad": "clamp(1)"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	w := s.Weights(30)
	if len(w) != 1 || !near(w["smile"], 0.5) {
		t.Error("Weights: ", w)
	}
}

func TestTrack(t *testing.T) {
	anim := &mmd.Animation{Morph: []*mmd.AnimationMorphSample{
		{Target: "blink", Frame: 0, Value: 0},
		{Target: "blink", Frame: 10, Value: 1},
		{Target: "smile", Frame: 30, Value: 0.5},
	}}
	tr := NewTrack(anim)
	if tr.LastFrame() != 30 || len(tr.Names()) != 2 {
		t.Error("Track: ", tr.LastFrame(), tr.Names())
	}
	w := tr.Weights(5)
	if !near(w["blink"], 0.5) || !near(w["smile"], 0.5) {
		t.Error("Weights: ", w)
	}
}

func TestSmoother(t *testing.T) {
	target := Static{"smile": 1}
	s := NewSmoother(target, 0.5)

	if w := s.Weights(0)["smile"]; !near(w, 0.5) {
		t.Error("step 1: ", w)
	}
	if w := s.Weights(1)["smile"]; !near(w, 0.75) {
		t.Error("step 2: ", w)
	}

	delete(target, "smile")
	if w := s.Weights(2)["smile"]; !near(w, 0.375) {
		t.Error("decay: ", w)
	}

	s.Reset()
	if len(s.Weights(3)) != 0 {
		t.Error("reset")
	}

	if NewSmoother(target, 0).Factor != 1 {
		t.Error("factor must default to 1")
	}
}

func TestApply(t *testing.T) {
	m := morph.NewManager()
	m.AddMorph(morph.NewMorph("smile", morph.TypeVertex))
	blink := m.AddMorph(morph.NewMorph("blink", morph.TypeVertex))
	m.SetMorphWeight(blink, 1)

	missing := Apply(m, Mix{Static{"smile": 0.25, "wink": 1}, Static{"smile": 0.5}}, 0)

	if len(missing) != 1 || missing[0] != "wink" {
		t.Error("missing: ", missing)
	}
	if !near(m.MorphWeight(0), 0.75) {
		t.Error("smile: ", m.MorphWeight(0))
	}
	if m.MorphWeight(blink) != 0 {
		t.Error("blink must be reset: ", m.MorphWeight(blink))
	}
}
