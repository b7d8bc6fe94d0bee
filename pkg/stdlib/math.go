package stdlib

import (
	"math"
	"math/rand"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

// installMath binds the Math system object, grounded on
// original_source/runtime/sslib/math.c, renamed to ember's plain-name
// convention for zero-arg dotted calls (epsilon, not getEpsilon).
func installMath(host Host) error {
	zeroArg := []struct {
		name string
		v    float64
	}{
		{"epsilon", 1.19e-7},
		{"pi", math.Pi},
		{"deg2rad", math.Pi / 180.0},
		{"rad2deg", 180.0 / math.Pi},
		{"infinity", math.Inf(1)},
	}
	for _, z := range zeroArg {
		v := z.v
		fn := func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
			return value.Number(v), nil
		}
		if err := host.Bind("Math", z.name, 0, fn); err != nil {
			return err
		}
	}

	unary := map[string]func(float64) float64{
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"sqrt": math.Sqrt, "exp": math.Exp, "log": math.Log, "log10": math.Log10,
		"floor": math.Floor, "ceil": math.Ceil, "round": math.Round,
		"sign": sign, "abs": math.Abs,
	}
	for name, fn := range unary {
		f := fn
		if err := host.Bind("Math", name, 1, mathUnary(f)); err != nil {
			return err
		}
	}

	binary := map[string]func(a, b float64) float64{
		"atan2": math.Atan2, "pow": math.Pow, "fmod": math.Mod,
		"min": math.Min, "max": math.Max,
	}
	for name, fn := range binary {
		f := fn
		if err := host.Bind("Math", name, 2, mathBinary(f)); err != nil {
			return err
		}
	}

	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"random", 0, mathRandom},
		{"clamp", 3, mathClamp},
		{"approximately", 2, mathApproximately},
		{"lerp", 3, mathLerp},
		{"smoothstep", 3, mathSmoothstep},
	}
	for _, b := range binds {
		if err := host.Bind("Math", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func mathUnary(f func(float64) float64) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(f(args[0].ToNumber())), nil
	}
}

func mathBinary(f func(a, b float64) float64) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(f(args[0].ToNumber(), args[1].ToNumber())), nil
	}
}

func mathRandom(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	return value.Number(rand.Float64()), nil
}

func mathClamp(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	x, lo, hi := args[0].ToNumber(), args[1].ToNumber(), args[2].ToNumber()
	return value.Number(math.Max(lo, math.Min(hi, x))), nil
}

// mathApproximately uses value.ApproxEqual, the function the compare
// package exposes but that no opcode ever calls implicitly (DESIGN.md Open
// Question (a)); this is its one caller in the standard library.
func mathApproximately(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	a, b := args[0].ToNumber(), args[1].ToNumber()
	return value.Bool(value.ApproxEqual(a, b, 1e-5)), nil
}

func mathLerp(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	a, b, t := args[0].ToNumber(), args[1].ToNumber(), args[2].ToNumber()
	t = math.Max(0, math.Min(1, t))
	return value.Number(a + (b-a)*t), nil
}

func mathSmoothstep(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	edge0, edge1, x := args[0].ToNumber(), args[1].ToNumber(), args[2].ToNumber()
	t := math.Max(0, math.Min(1, (x-edge0)/(edge1-edge0)))
	return value.Number(t * t * (3 - 2*t)), nil
}
