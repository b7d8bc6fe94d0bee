package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/value"
)

func newLaunched(t *testing.T, source string) *VM {
	t.Helper()
	v := New()
	t.Cleanup(v.Close)
	require.NoError(t, v.CompileSource("test.ember", source))
	require.NoError(t, v.Launch())
	return v
}

func runToCompletion(t *testing.T, v *VM) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		active, err := v.Update()
		require.NoError(t, err)
		if !active {
			return
		}
	}
	t.Fatal("script never finished (no exit() call, or an infinite state loop)")
}

func TestRunToCompletionExitsViaApplication(t *testing.T) {
	v := newLaunched(t, `
		object "Main" {
			done = false;
			state "main" {
				done = true;
				Application.exit();
			}
		}
	`)
	runToCompletion(t, v)
	assert.False(t, v.IsActive())

	h, ok := v.FindByName(v.Root(), "Main")
	require.True(t, ok)
	assert.True(t, v.HeapOf(h).At(0).ToBool())
}

func TestArrayLiteralAndMethodsThroughScript(t *testing.T) {
	v := newLaunched(t, `
		object "Main" {
			total = 0;
			state "main" {
				a = [1, 2, 3];
				a.push(4);
				total = a.length();
				Application.exit();
			}
		}
	`)
	runToCompletion(t, v)

	h, ok := v.FindByName(v.Root(), "Main")
	require.True(t, ok)
	assert.Equal(t, float64(4), v.HeapOf(h).At(0).ToNumber())
}

func TestMathSystemObjectViaCallFunction(t *testing.T) {
	v := New()
	defer v.Close()
	require.NoError(t, v.Launch())

	math := v.Find("Math")
	require.NotZero(t, math)

	result, err := v.CallFunction(math, "sqrt", []value.Value{value.Number(16)})
	require.NoError(t, err)
	assert.Equal(t, float64(4), result.ToNumber())

	result, err = v.CallFunction(math, "clamp", []value.Value{value.Number(5), value.Number(0), value.Number(3)})
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.ToNumber())
}

func TestStringUtilityFunctionsTakeSubjectAsFirstArg(t *testing.T) {
	v := New()
	defer v.Close()
	require.NoError(t, v.Launch())

	str := v.Find("String")
	require.NotZero(t, str)

	result, err := v.CallFunction(str, "toUpper", []value.Value{value.String(v.Pool, "hi")})
	require.NoError(t, err)
	assert.Equal(t, "HI", result.ToString(v.Pool))

	result, err = v.CallFunction(str, "length", []value.Value{value.String(v.Pool, "hello")})
	require.NoError(t, err)
	assert.Equal(t, float64(5), result.ToNumber())
}

func TestApplicationArgsRoundTripThroughArray(t *testing.T) {
	v := New()
	defer v.Close()
	v.SetScriptArgs([]string{"--level", "3"})
	require.NoError(t, v.Launch())

	app := v.Find("Application")
	require.NotZero(t, app)

	arr, err := v.CallFunction(app, "args", nil)
	require.NoError(t, err)
	arrHandle := object.Handle(arr.Handle())

	n, err := v.CallFunction(arrHandle, "length", nil)
	require.NoError(t, err)
	require.Equal(t, float64(2), n.ToNumber())

	first, err := v.CallFunction(arrHandle, "get", []value.Value{value.Number(0)})
	require.NoError(t, err)
	assert.Equal(t, "--level", first.ToString(v.Pool))
}

func TestTagSystemQueriesRegisteredTags(t *testing.T) {
	v := New()
	defer v.Close()
	v.Tags.AddTag("Enemy", "hostile")
	v.Tags.AddTag("Enemy", "flying")
	require.NoError(t, v.Launch())

	tagSys := v.Find("__TagSystem")
	require.NotZero(t, tagSys)

	has, err := v.CallFunction(tagSys, "hasTag", []value.Value{value.String(v.Pool, "Enemy"), value.String(v.Pool, "flying")})
	require.NoError(t, err)
	assert.True(t, has.ToBool())

	has, err = v.CallFunction(tagSys, "hasTag", []value.Value{value.String(v.Pool, "Enemy"), value.String(v.Pool, "aquatic")})
	require.NoError(t, err)
	assert.False(t, has.ToBool())
}

func TestElapsedAndDeltaTimeAdvanceAcrossUpdates(t *testing.T) {
	v := newLaunched(t, `
		object "Main" {
			state "main" {
			}
		}
	`)
	assert.Equal(t, float64(0), v.ElapsedTime())

	active, err := v.Update()
	require.NoError(t, err)
	require.True(t, active)
	assert.GreaterOrEqual(t, v.ElapsedTime(), float64(0))
	assert.GreaterOrEqual(t, v.DeltaTime(), float64(0))
}
