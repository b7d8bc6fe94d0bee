package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/bytecode"
)

func findProgram(t *testing.T, unit *Unit, objectName, programName string) *bytecode.Program {
	t.Helper()
	for _, obj := range unit.Objects {
		if obj.Name != objectName {
			continue
		}
		for _, p := range obj.Programs {
			if p.Name == programName {
				return p
			}
		}
	}
	t.Fatalf("program %s.%s not found", objectName, programName)
	return nil
}

func countOp(p *bytecode.Program, op bytecode.Opcode) int {
	n := 0
	for _, inst := range p.Instructions {
		if inst.Op == op {
			n++
		}
	}
	return n
}

// A bare identifier immediately followed by '.' that never resolves through
// the symbol table (no declared heap/local variable of that name) compiles
// to a runtime OpFindObject lookup rather than a compile error, per
// DESIGN.md's "Bare references to system/child objects" decision: this is
// what lets `Console.print(...)`/`Application.exit()` compile even though
// neither is ever declared as a variable.
func TestBareDottedReferenceCompilesToFindObject(t *testing.T) {
	unit, err := Compile("test.ember", `
		object "App" {
			state "main" {
				Console.print("hi");
			}
		}
	`)
	require.NoError(t, err)

	p := findProgram(t, unit, "App", "state:main")
	assert.Equal(t, 1, countOp(p, bytecode.OpFindObject))

	var sawConsole bool
	for _, inst := range p.Instructions {
		if inst.Op == bytecode.OpFindObject && p.Text(inst.B.U()) == "Console" {
			sawConsole = true
		}
	}
	assert.True(t, sawConsole, "expected an OpFindObject referencing %q", "Console")
}

// A declared heap variable shadows the OpFindObject fallback: once a name is
// in scope, reading it is a plain heap peek, never a runtime name lookup.
func TestDeclaredVariableShadowsFindObjectFallback(t *testing.T) {
	unit, err := Compile("test.ember", `
		object "App" {
			Console = null;
			state "main" {
				Console.print("hi");
			}
		}
	`)
	require.NoError(t, err)

	p := findProgram(t, unit, "App", "state:main")
	assert.Equal(t, 0, countOp(p, bytecode.OpFindObject))
	assert.GreaterOrEqual(t, countOp(p, bytecode.OpHeapPeek), 1)
}

// An undeclared bare identifier with no following '.' is a genuine compile
// error (there is nothing for OpFindObject to resolve without the dotted
// call syntax, and no symbol-table entry exists either).
func TestUndeclaredBareIdentifierWithoutDotIsCompileError(t *testing.T) {
	_, err := Compile("test.ember", `
		object "App" {
			state "main" {
				x = missing;
			}
		}
	`)
	require.Error(t, err)
}

// The generic per-object built-ins (changeState, and friends bound under
// the shared "Object" pseudo-class at the vm.Resolve layer) are called
// undotted, exactly like any other funcall on an implicit `this` receiver:
// the compiler emits OpMoveThis followed by an ordinary OpCall, leaving the
// (objectName, "Object") fallback resolution entirely to pkg/vm.
func TestBareUndottedCallCompilesAsCallOnThis(t *testing.T) {
	unit, err := Compile("test.ember", `
		object "App" {
			state "main" {
				changeState("wait");
			}
		}
	`)
	require.NoError(t, err)

	p := findProgram(t, unit, "App", "state:main")
	require.Equal(t, 1, countOp(p, bytecode.OpMoveThis))
	require.Equal(t, 1, countOp(p, bytecode.OpCall))

	for _, inst := range p.Instructions {
		if inst.Op == bytecode.OpCall {
			assert.Equal(t, "changeState", p.Text(inst.A.U()))
		}
	}
}
