// Package compiler implements ember's single-pass compiler: a recursive
// descent parser (parser.go, stmt.go, expr.go) that emits pkg/bytecode
// directly as each production is recognised, per spec.md §4.8 ("there is no
// separate AST stage"). Object declarations compile to a set of named
// programs registered in the caller's program pool; symbol resolution runs
// through the chained pkg/compiler Scope (symtable.go).
package compiler

import (
	"fmt"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/lexer"
	"github.com/emberlang/ember/pkg/program"
	"github.com/emberlang/ember/pkg/vmerrors"
)

// CompiledObject is one object_decl's compiled output: every program its
// body, states, and functions emitted, plus any tags attached to it.
// spec.md's grammar sketch names no tag syntax, so Tags is always empty for
// now — it exists so vm.CompileSource (already wired to read it) has
// somewhere to grow into if a future unit adds an annotation production.
type CompiledObject struct {
	Name     string
	Tags     []string
	Programs []*bytecode.Program
}

// Unit is the result of compiling one source string: spec.md §4.8's
// `program := object_decl*`.
type Unit struct {
	Objects []CompiledObject
}

// Compile parses source (from file, used only to stamp <file>:<line> into
// parse errors per spec.md §7 point 1) and compiles every object_decl it
// contains.
func Compile(file, source string) (*Unit, error) {
	p := newParser(file, source)
	if err := p.start(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var unit Unit
	for p.cur.Type != lexer.TokenEOF {
		obj, err := p.objectDecl()
		if err != nil {
			return nil, err
		}
		if seen[obj.Name] {
			return nil, &vmerrors.ParseError{File: file, Line: p.cur.Line, Message: fmt.Sprintf("duplicate object declaration %q", obj.Name)}
		}
		seen[obj.Name] = true
		unit.Objects = append(unit.Objects, obj)
	}
	return &unit, nil
}

// objectDecl compiles 'object' STRING '{' var_decl* (state_decl|fun_decl)* '}'.
//
// var_decls reserve heap symbols, in order, against the object's own scope;
// their initialisers are emitted, in declaration order, into the object's
// synthesised constructor program (program.ConstructorProgramName), which
// runs once at spawn time (spec.md §4.5/§4.8).
func (p *Parser) objectDecl() (CompiledObject, error) {
	if err := p.expect(lexer.TokenObject, "'object'"); err != nil {
		return CompiledObject{}, err
	}
	name, err := p.expectString()
	if err != nil {
		return CompiledObject{}, err
	}
	if err := p.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return CompiledObject{}, err
	}

	objScope := NewHeapScope()
	ctorBuilder := bytecode.NewBuilder(program.ConstructorProgramName, 0)
	ctorCtx := newCtx(p, ctorBuilder, objScope, objScope)

	obj := CompiledObject{Name: name}

	for p.cur.Type == lexer.TokenIdent {
		if err := p.varDecl(ctorCtx); err != nil {
			return CompiledObject{}, err
		}
	}

	ctorBuilder.Emit(bytecode.OpMoveNull, op(0), noOperand, noOperand)
	ctorBuilder.Emit(bytecode.OpRet, noOperand, noOperand, noOperand)
	ctorBuilder.SetNumLocalVars(0)
	obj.Programs = append(obj.Programs, ctorBuilder.Finish())

	seenPrograms := map[string]bool{program.ConstructorProgramName: true}
	for p.cur.Type == lexer.TokenState || p.cur.Type == lexer.TokenFun {
		var (
			prog *bytecode.Program
			err  error
		)
		switch p.cur.Type {
		case lexer.TokenState:
			prog, err = p.stateDecl(objScope)
		default:
			prog, err = p.funDecl(objScope)
		}
		if err != nil {
			return CompiledObject{}, err
		}
		if seenPrograms[prog.Name] {
			return CompiledObject{}, p.errf("object %q already declares %q", name, prog.Name)
		}
		seenPrograms[prog.Name] = true
		obj.Programs = append(obj.Programs, prog)
	}

	if err := p.expect(lexer.TokenRBrace, "'}'"); err != nil {
		return CompiledObject{}, err
	}
	return obj, nil
}

// varDecl compiles IDENT '=' expr ';', reserving a fresh heap symbol and
// emitting its initialiser into the enclosing constructor's codegenCtx.
func (p *Parser) varDecl(ctx *codegenCtx) error {
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expect(lexer.TokenAssign, "'='"); err != nil {
		return err
	}
	if err := p.expr(ctx); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}
	addr := ctx.scope.DeclareHeap(name)
	ctx.emitStoreReg(0, addr, true)
	return nil
}

// stateDecl compiles 'state' STRING '{' stmt* '}' into a program named
// program.StateProgramName(name), run with a fresh stack scope (argc 0)
// parented by the object's heap scope.
func (p *Parser) stateDecl(objScope *Scope) (*bytecode.Program, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expectString()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return nil, err
	}

	progName := program.StateProgramName(name)
	b := bytecode.NewBuilder(progName, 0)
	scope := NewStackScope(objScope, 0)
	ctx := newCtx(p, b, scope, objScope)

	for p.cur.Type != lexer.TokenRBrace {
		if p.cur.Type == lexer.TokenEOF {
			return nil, p.errf("unexpected end of input in state %q", name)
		}
		if err := p.stmt(ctx); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}

	b.Emit(bytecode.OpMoveNull, op(0), noOperand, noOperand)
	b.Emit(bytecode.OpRet, noOperand, noOperand, noOperand)
	b.SetNumLocalVars(scope.NumLocals())
	return b.Finish(), nil
}

// funDecl compiles 'fun' IDENT '(' params? ')' '{' stmt* '}' into a program
// named after the function, with a fresh stack scope (argc len(params))
// parented by the object's heap scope. Duplicate parameter names are a
// parse error.
func (p *Parser) funDecl(objScope *Scope) (*bytecode.Program, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	progName, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return nil, err
	}

	var params []string
	if p.cur.Type != lexer.TokenRParen {
		for {
			pname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			params = append(params, pname)
			if p.cur.Type == lexer.TokenComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return nil, err
	}

	b := bytecode.NewBuilder(progName, len(params))
	scope := NewStackScope(objScope, len(params))
	for i, pname := range params {
		if !scope.DeclareParam(pname, i) {
			return nil, p.errf("function %q declares parameter %q twice", progName, pname)
		}
	}
	ctx := newCtx(p, b, scope, objScope)

	for p.cur.Type != lexer.TokenRBrace {
		if p.cur.Type == lexer.TokenEOF {
			return nil, p.errf("unexpected end of input in function %q", progName)
		}
		if err := p.stmt(ctx); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}

	b.Emit(bytecode.OpMoveNull, op(0), noOperand, noOperand)
	b.Emit(bytecode.OpRet, noOperand, noOperand, noOperand)
	b.SetNumLocalVars(scope.NumLocals())
	return b.Finish(), nil
}
