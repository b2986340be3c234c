package motion

import (
	"fmt"
	"math"
	"strings"

	"github.com/binzume/mmdmorph/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/Knetic/govaluate.v3"
)

// DefaultFPS is the MMD frame rate.
const DefaultFPS = 30

var functions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"abs":   unary(math.Abs),
	"clamp": clamp,
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("not a number: %v", args[0])
		}
		return f(v), nil
	}
}

func clamp(args ...interface{}) (interface{}, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("clamp: expected 3 arguments, got %d", len(args))
	}
	var v [3]float64
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("clamp: not a number: %v", a)
		}
		v[i] = f
	}
	return math.Max(v[1], math.Min(v[2], v[0])), nil
}

// Expression is a weight formula over frame and t (seconds).
type Expression struct {
	src  string
	expr *govaluate.EvaluableExpression
}

func NewExpression(src string) (*Expression, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(src, functions)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	for _, v := range expr.Vars() {
		if v != "frame" && v != "t" {
			return nil, fmt.Errorf("expression %q: unknown variable %q", src, v)
		}
	}
	return &Expression{src: src, expr: expr}, nil
}

func (e *Expression) String() string {
	return e.src
}

// Eval evaluates the expression at frame.
func (e *Expression) Eval(frame, fps float64) (float32, error) {
	v, err := e.expr.Evaluate(map[string]interface{}{
		"frame": frame,
		"t":     frame / fps,
	})
	if err != nil {
		return 0, fmt.Errorf("expression %q: %w", e.src, err)
	}
	switch v := v.(type) {
	case float64:
		return float32(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("expression %q: not a number: %v", e.src, v)
}

// ExpressionSet maps morph names to expressions.
type ExpressionSet struct {
	FPS         float64
	expressions map[string]*Expression
}

// NewExpressionSet compiles every expression and reports all failures together.
func NewExpressionSet(src map[string]string, fps float64) (*ExpressionSet, error) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	s := &ExpressionSet{FPS: fps, expressions: map[string]*Expression{}}
	var errs error
	for name, e := range src {
		expr, err := NewExpression(e)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		s.expressions[name] = expr
	}
	if errs != nil {
		return nil, errs
	}
	return s, nil
}

func (s *ExpressionSet) Weights(frame float64) map[string]float32 {
	r := make(map[string]float32, len(s.expressions))
	for name, e := range s.expressions {
		w, err := e.Eval(frame, s.FPS)
		if err != nil {
			logger.Warn("weight expression failed", zap.String("morph", name), zap.Error(err))
			continue
		}
		r[name] = w
	}
	return r
}
