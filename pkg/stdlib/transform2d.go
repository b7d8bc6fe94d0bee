package stdlib

import (
	"math"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/value"
)

// installTransform2D binds the position/rotation/scale operations of
// original_source/runtime/sslib/transform2d.c directly onto the generic
// Object pseudo-class, operating on object.Object.Transform, rather than as
// a separately-spawned component class: ember's Object already carries an
// optional *Transform2D field (see pkg/object/object.go), so every object
// answers to these selectors without needing a child Transform2D instance.
func installTransform2D(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"translate", 2, t2dTranslate(host)},
		{"rotate", 1, t2dRotate(host)},
		{"scale", 2, t2dScale(host)},
		{"localPosition", 0, t2dLocalPosition(host)},
		{"setLocalPosition", 2, t2dSetLocalPosition(host)},
		{"localAngle", 0, t2dLocalAngle(host)},
		{"setLocalAngle", 1, t2dSetLocalAngle(host)},
		{"worldPosition", 0, t2dWorldPosition(host)},
		{"worldAngle", 0, t2dWorldAngle(host)},
		{"lookAt", 2, t2dLookAt(host)},
		{"lookTo", 1, t2dLookTo(host)},
		{"distanceTo", 1, t2dDistanceTo(host)},
	}
	for _, b := range binds {
		if err := host.Bind(baseObjectName, b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// transformOf lazily attaches the identity transform the first time an
// object is asked about its own geometry, matching the original's
// transform2d.c being a component script creates on demand.
func transformOf(host Host, h object.Handle) *object.Transform2D {
	o := host.Manager().Get(h)
	if o.Transform == nil {
		o.Transform = object.NewTransform2D()
	}
	return o.Transform
}

func t2dTranslate(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		t.X += args[0].ToNumber()
		t.Y += args[1].ToNumber()
		return value.Null(), nil
	}
}

func t2dRotate(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		t.Rotation += args[0].ToNumber() * math.Pi / 180.0
		return value.Null(), nil
	}
}

func t2dScale(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		t.ScaleX *= args[0].ToNumber()
		t.ScaleY *= args[1].ToNumber()
		return value.Null(), nil
	}
}

func t2dLocalPosition(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		return spawnArray(host, []value.Value{value.Number(t.X), value.Number(t.Y)})
	}
}

func t2dSetLocalPosition(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		t.X = args[0].ToNumber()
		t.Y = args[1].ToNumber()
		return value.Null(), nil
	}
}

func t2dLocalAngle(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		return value.Number(t.Rotation * 180.0 / math.Pi), nil
	}
}

func t2dSetLocalAngle(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		t.Rotation = args[0].ToNumber() * math.Pi / 180.0
		return value.Null(), nil
	}
}

// worldXY composes self's position with every ancestor's translation and
// rotation up to the root, per transform2d.c's worldposition2d.
func worldXY(host Host, h object.Handle) (x, y float64) {
	m := host.Manager()
	for {
		o := m.Get(h)
		if o.Transform != nil {
			t := o.Transform
			rx := x*math.Cos(t.Rotation) - y*math.Sin(t.Rotation)
			ry := x*math.Sin(t.Rotation) + y*math.Cos(t.Rotation)
			x, y = rx*t.ScaleX+t.X, ry*t.ScaleY+t.Y
		}
		if o.IsRoot() {
			return x, y
		}
		h = o.Parent
	}
}

func worldAngle(host Host, h object.Handle) float64 {
	m := host.Manager()
	angle := 0.0
	for {
		o := m.Get(h)
		if o.Transform != nil {
			angle += o.Transform.Rotation
		}
		if o.IsRoot() {
			return angle
		}
		h = o.Parent
	}
}

func t2dWorldPosition(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		x, y := worldXY(host, object.Handle(self))
		return spawnArray(host, []value.Value{value.Number(x), value.Number(y)})
	}
}

func t2dWorldAngle(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		return value.Number(worldAngle(host, object.Handle(self)) * 180.0 / math.Pi), nil
	}
}

func t2dLookAt(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		t := transformOf(host, self)
		x, y := worldXY(host, object.Handle(self))
		dx, dy := args[0].ToNumber()-x, args[1].ToNumber()-y
		t.Rotation = math.Atan2(dy, dx)
		return value.Null(), nil
	}
}

func t2dLookTo(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		other := object.Handle(args[0].Handle())
		t := transformOf(host, self)
		x, y := worldXY(host, object.Handle(self))
		ox, oy := worldXY(host, other)
		t.Rotation = math.Atan2(oy-y, ox-x)
		return value.Null(), nil
	}
}

func t2dDistanceTo(host Host) interp.NativeFunc {
	return func(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
		other := object.Handle(args[0].Handle())
		x, y := worldXY(host, object.Handle(self))
		ox, oy := worldXY(host, other)
		return value.Number(math.Hypot(ox-x, oy-y)), nil
	}
}
