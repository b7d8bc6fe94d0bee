package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/bytecode"
)

func finished(name string) *bytecode.Program {
	b := bytecode.NewBuilder(name, 0)
	b.Emit(bytecode.OpRet, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{})
	return b.Finish()
}

func TestRegisterAndLookupRoundTrip(t *testing.T) {
	pool := New()
	p := finished(StateProgramName("main"))
	pool.Register("Main", p)

	got, ok := pool.Lookup("Main", "state:main")
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestLookupMissingReportsNotFound(t *testing.T) {
	pool := New()
	_, ok := pool.Lookup("Main", "state:main")
	assert.False(t, ok)
}

func TestHasMirrorsLookupWithoutRetrieving(t *testing.T) {
	pool := New()
	assert.False(t, pool.Has("Main", ConstructorProgramName))
	pool.Register("Main", finished(ConstructorProgramName))
	assert.True(t, pool.Has("Main", ConstructorProgramName))
}

func TestReregistrationOverwritesPreviousProgram(t *testing.T) {
	pool := New()
	first := finished("state:main")
	second := finished("state:main")
	pool.Register("Main", first)
	pool.Register("Main", second)

	got, _ := pool.Lookup("Main", "state:main")
	assert.Same(t, second, got)
}

func TestMustLookupPanicsNamingObjectAndProgram(t *testing.T) {
	pool := New()
	assert.PanicsWithValue(t,
		`program: no program "state:main" registered for object "Main"`,
		func() { pool.MustLookup("Main", "state:main") },
	)
}

func TestProgramNameHelpers(t *testing.T) {
	assert.Equal(t, "state:main", StateProgramName("main"))
	assert.Equal(t, "__ssconstructor", ConstructorProgramName)
	assert.Equal(t, "__destructor", DestructorProgramName)
	assert.Equal(t, "constructor", UserConstructorProgramName)
}

func TestDistinctObjectsDoNotShareProgramNamespace(t *testing.T) {
	pool := New()
	pool.Register("Enemy", finished("state:main"))
	assert.False(t, pool.Has("Player", "state:main"))
}
