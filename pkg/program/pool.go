// Package program implements the ProgramPool described in spec.md §2/§4.4:
// a mapping (object name, program name) -> *bytecode.Program, grounded on
// original_source/runtime/program_pool.c.
package program

import (
	"fmt"
	"sync"

	"github.com/emberlang/ember/pkg/bytecode"
)

// key is the (object_name, program_name) pair programs are registered
// under.
type key struct {
	object  string
	program string
}

// Pool is the VM-wide registry of compiled programs.
type Pool struct {
	mu       sync.RWMutex
	programs map[key]*bytecode.Program
}

// New creates an empty ProgramPool.
func New() *Pool {
	return &Pool{programs: make(map[key]*bytecode.Program)}
}

// Register installs p under (objectName, p.Name). Re-registration (a
// recompiled script unit) overwrites the previous program — ember does not
// support incremental relinking within one VM run.
func (pool *Pool) Register(objectName string, p *bytecode.Program) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	pool.programs[key{objectName, p.Name}] = p
}

// Lookup returns the program registered for (objectName, programName), and
// whether it exists.
func (pool *Pool) Lookup(objectName, programName string) (*bytecode.Program, bool) {
	pool.mu.RLock()
	defer pool.mu.RUnlock()
	p, ok := pool.programs[key{objectName, programName}]
	return p, ok
}

// MustLookup is Lookup but panics with a message naming both the object
// and the program, per spec.md §7 point 3 ("the interpreter must name the
// offending object and program in the message").
func (pool *Pool) MustLookup(objectName, programName string) *bytecode.Program {
	p, ok := pool.Lookup(objectName, programName)
	if !ok {
		panic(fmt.Sprintf("program: no program %q registered for object %q", programName, objectName))
	}
	return p
}

// Has reports whether a program exists without retrieving it; used by the
// scheduler to check for a `state:<name>` program before invoking it.
func (pool *Pool) Has(objectName, programName string) bool {
	_, ok := pool.Lookup(objectName, programName)
	return ok
}

// StateProgramName builds the "state:<name>" program name spec.md §4.7
// dispatches per tick.
func StateProgramName(stateName string) string {
	return "state:" + stateName
}

// ConstructorProgramName is the name every object declaration's body is
// emitted under (spec.md §4.8).
const ConstructorProgramName = "__ssconstructor"

// DestructorProgramName is the optional program run before an object is
// freed (spec.md §4.5).
const DestructorProgramName = "__destructor"

// UserConstructorProgramName is the optional zero-arity "constructor"
// function run once right after __ssconstructor, if declared.
const UserConstructorProgramName = "constructor"
