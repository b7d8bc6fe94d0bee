package compiler

// Scope is one link of the symbol-table chain spec.md §4.8 describes:
// "Symbol tables are chained: the function's table parents the object's
// table. Lookups walk the chain; writes fall back to the parent when not
// local." An object's top-level scope holds heap variables (its declared
// `var_decl`s); a state or function body's scope holds stack variables
// (parameters and implicit locals) and parents the object's heap scope.
//
// Grounded on original_source/compiler/symtable.c's chained
// heapvt/stackvt design, adapted to the offset arithmetic resolved in
// DESIGN.md ("Resolved ambiguities"): parameter i of argc sits at
// i-argc-1; a local declared j-th (0-indexed) sits at +j; a heap variable
// declared n-th (0-indexed, within its own object only) sits at heap
// address n.
type Scope struct {
	parent  *Scope
	isHeap  bool
	addr    map[string]int
	order   []string // declaration order, heap scopes only
	argc    int      // stack scopes only: number of declared parameters
	nextLoc int       // stack scopes only: next implicit-local address
}

// NewHeapScope starts a fresh object-level scope with no parent.
func NewHeapScope() *Scope {
	return &Scope{isHeap: true, addr: make(map[string]int)}
}

// NewStackScope starts a function/state-level scope parented by object,
// which must be a heap scope.
func NewStackScope(object *Scope, argc int) *Scope {
	return &Scope{parent: object, addr: make(map[string]int), argc: argc}
}

// DeclareHeap reserves the next heap address for name, in declaration
// order, and returns it. Only valid on a heap scope.
func (s *Scope) DeclareHeap(name string) int {
	addr := len(s.order)
	s.order = append(s.order, name)
	s.addr[name] = addr
	return addr
}

// DeclareParam reserves a parameter's stack address. idx is its
// left-to-right position among the function's declared parameters
// (0 <= idx < argc). Returns false if name is already a parameter of this
// same scope (duplicate parameter name).
func (s *Scope) DeclareParam(name string, idx int) bool {
	if _, exists := s.addr[name]; exists {
		return false
	}
	s.addr[name] = idx - s.argc - 1
	return true
}

// DeclareLocal reserves the next implicit local's stack address on a
// stack scope, in declaration order starting at 0, and returns it.
func (s *Scope) DeclareLocal(name string) int {
	addr := s.nextLoc
	s.nextLoc++
	s.addr[name] = addr
	return addr
}

// NumLocals reports how many implicit locals have been declared so far,
// for Builder.SetNumLocalVars.
func (s *Scope) NumLocals() int { return s.nextLoc }

// Resolve walks the chain from s outward looking for name, returning the
// scope holding it, its address, and whether that scope is a heap scope.
func Resolve(s *Scope, name string) (owner *Scope, addr int, isHeap bool, found bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if a, ok := cur.addr[name]; ok {
			return cur, a, cur.isHeap, true
		}
	}
	return nil, 0, false, false
}
