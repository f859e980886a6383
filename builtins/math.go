package builtins

import (
	"math"
	"math/rand"

	"github.com/example/jsviz/runtime"
)

var mathUnaryFuncs = []struct {
	name string
	fn   func(float64) float64
}{
	{"abs", math.Abs},
	{"ceil", math.Ceil},
	{"floor", math.Floor},
	{"round", jsRound},
	{"sqrt", math.Sqrt},
	{"log", math.Log},
	{"exp", math.Exp},
	{"sin", math.Sin},
	{"cos", math.Cos},
	{"tan", math.Tan},
	{"asin", math.Asin},
	{"acos", math.Acos},
	{"atan", math.Atan},
}

func (in *installer) createMathObject(objProto *runtime.Object) *runtime.Object {
	m := in.heap.Alloc(runtime.ClassObject, objProto.ID)

	setConstant(m, "PI", runtime.NewNumber(math.Pi))
	setConstant(m, "E", runtime.NewNumber(math.E))
	setConstant(m, "LN2", runtime.NewNumber(math.Ln2))
	setConstant(m, "LN10", runtime.NewNumber(math.Ln10))
	setConstant(m, "LOG2E", runtime.NewNumber(math.Log2E))
	setConstant(m, "LOG10E", runtime.NewNumber(math.Log10E))
	setConstant(m, "SQRT2", runtime.NewNumber(math.Sqrt2))
	setConstant(m, "SQRT1_2", runtime.NewNumber(1.0/math.Sqrt2))

	for _, u := range mathUnaryFuncs {
		fn := u.fn
		in.setMethod(m, "Math", u.name, 1, func(c *runtime.NativeCall) (runtime.Value, error) {
			return runtime.NewNumber(fn(c.Heap.ToNumber(c.Arg(0)))), nil
		})
	}
	in.setMethod(m, "Math", "max", 2, mathMax)
	in.setMethod(m, "Math", "min", 2, mathMin)
	in.setMethod(m, "Math", "pow", 2, mathPow)
	in.setMethod(m, "Math", "atan2", 2, mathAtan2)
	in.setMethod(m, "Math", "random", 0, mathRandom)
	return m
}

// jsRound rounds half up, unlike math.Round which rounds half away from
// zero.
func jsRound(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	return math.Floor(n + 0.5)
}

func mathMax(c *runtime.NativeCall) (runtime.Value, error) {
	result := math.Inf(-1)
	for _, a := range c.Args {
		n := c.Heap.ToNumber(a)
		if math.IsNaN(n) {
			return runtime.NaN, nil
		}
		if n > result {
			result = n
		}
	}
	return runtime.NewNumber(result), nil
}

func mathMin(c *runtime.NativeCall) (runtime.Value, error) {
	result := math.Inf(1)
	for _, a := range c.Args {
		n := c.Heap.ToNumber(a)
		if math.IsNaN(n) {
			return runtime.NaN, nil
		}
		if n < result {
			result = n
		}
	}
	return runtime.NewNumber(result), nil
}

func mathPow(c *runtime.NativeCall) (runtime.Value, error) {
	return runtime.NewNumber(math.Pow(c.Heap.ToNumber(c.Arg(0)), c.Heap.ToNumber(c.Arg(1)))), nil
}

func mathAtan2(c *runtime.NativeCall) (runtime.Value, error) {
	return runtime.NewNumber(math.Atan2(c.Heap.ToNumber(c.Arg(0)), c.Heap.ToNumber(c.Arg(1)))), nil
}

func mathRandom(c *runtime.NativeCall) (runtime.Value, error) {
	return runtime.NewNumber(rand.Float64()), nil
}
