// Expression-level codegen: the precedence chain spec.md §4.8 names
// (assign > cond > logor > logand > equality > relational > additive >
// multiplicative > unary > postfix > primary), compiled directly to
// bytecode as each production is recognised, per spec.md §4.8's "no
// separate AST stage".
//
// Register convention: t[0] always carries "the value of the expression
// just compiled" on return from any of these functions. t[1] and t[2] are
// scratch, clobbered freely by binary operators and comparisons; nothing
// relies on them surviving a nested call. A value that must survive
// evaluating a sibling subexpression (the callee handle of a funcall,
// across evaluating its own arguments, which may themselves be arbitrarily
// nested calls) is never parked in a register — it goes into a hidden
// heap/stack slot via codegenCtx.declareHidden, the same storage locals
// use, so nesting depth doesn't matter.
package compiler

import (
	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/lexer"
)

func op(u int) bytecode.Operand { return bytecode.Op(u) }

var noOperand = bytecode.Operand{}

// emitLoadReg/emitStoreReg move a value between temp register `reg` and a
// resolved symbol-table slot, heap or stack as appropriate. Every
// identifier read/write and every hidden-slot park/reload goes through
// these two, so the heap-vs-stack choice is made in exactly one place.
func (ctx *codegenCtx) emitLoadReg(reg, addr int, isHeap bool) {
	if isHeap {
		ctx.b.Emit(bytecode.OpHeapPeek, op(reg), op(addr), noOperand)
		return
	}
	ctx.b.Emit(bytecode.OpStkPeek, op(reg), bytecode.OpI(addr), noOperand)
}

func (ctx *codegenCtx) emitStoreReg(reg, addr int, isHeap bool) {
	if isHeap {
		ctx.b.Emit(bytecode.OpHeapPoke, op(reg), op(addr), noOperand)
		return
	}
	ctx.b.Emit(bytecode.OpStkPoke, op(reg), bytecode.OpI(addr), noOperand)
}

// expr is the top-level expression entry point used by statements and
// var_decl initialisers. spec.md's grammar has no comma operator, so this
// is simply an alias for assign.
func (p *Parser) expr(ctx *codegenCtx) error { return p.assign(ctx) }

var assignOps = map[lexer.TokenType]bool{
	lexer.TokenAssign: true, lexer.TokenPlusAssign: true, lexer.TokenMinusAssign: true,
	lexer.TokenStarAssign: true, lexer.TokenSlashAssign: true, lexer.TokenPercentAssign: true,
}

var compoundOpcode = map[lexer.TokenType]bytecode.Opcode{
	lexer.TokenPlusAssign:    bytecode.OpAdd,
	lexer.TokenMinusAssign:   bytecode.OpSub,
	lexer.TokenStarAssign:    bytecode.OpMul,
	lexer.TokenSlashAssign:   bytecode.OpDiv,
	lexer.TokenPercentAssign: bytecode.OpMod,
}

// assign := IDENT assign_op assign | cond
//
// Disambiguated with a single extra token of lookahead (src.Peek, which
// doesn't consume): if the current token is an identifier and the token
// after it is an assignment operator, this is an assignment; otherwise
// fall through to cond and let the identifier be consumed normally by the
// precedence chain below.
func (p *Parser) assign(ctx *codegenCtx) error {
	if p.cur.Type == lexer.TokenIdent {
		la, err := p.src.Peek()
		if err != nil {
			return p.lexErr(err)
		}
		if assignOps[la.Type] {
			name, line := p.cur.Literal, p.cur.Line
			if err := p.advance(); err != nil { // consume ident
				return err
			}
			opTok := p.cur.Type
			if err := p.advance(); err != nil { // consume assign-op
				return err
			}
			if err := p.assign(ctx); err != nil { // right-associative
				return err
			}
			return p.emitAssign(ctx, name, line, opTok)
		}
	}
	return p.cond(ctx)
}

func (p *Parser) emitAssign(ctx *codegenCtx, name string, line int, opTok lexer.TokenType) error {
	_, addr, isHeap, found := Resolve(ctx.scope, name)

	if opTok == lexer.TokenAssign {
		if !found {
			if ctx.scope.isHeap {
				addr, isHeap = ctx.scope.DeclareHeap(name), true
			} else {
				addr, isHeap = ctx.scope.DeclareLocal(name), false
			}
		}
		ctx.emitStoreReg(0, addr, isHeap)
		return nil
	}

	if !found {
		return p.errAt(line, "undefined symbol %q", name)
	}
	ctx.emitLoadReg(1, addr, isHeap) // t1 <- current value
	ctx.b.Emit(compoundOpcode[opTok], op(1), op(0), noOperand)
	ctx.b.Emit(bytecode.OpCopy, op(0), op(1), noOperand)
	ctx.emitStoreReg(0, addr, isHeap)
	return nil
}

func (p *Parser) errAt(line int, format string, args ...any) error {
	saved := p.cur.Line
	p.cur.Line = line
	err := p.errf(format, args...)
	p.cur.Line = saved
	return err
}

// cond := logor ('?' assign ':' assign)?
func (p *Parser) cond(ctx *codegenCtx) error {
	if err := p.logor(ctx); err != nil {
		return err
	}
	if p.cur.Type != lexer.TokenQuestion {
		return nil
	}
	if err := p.advance(); err != nil {
		return err
	}
	elseL, doneL := ctx.b.NewLabel(), ctx.b.NewLabel()
	ctx.b.Emit(bytecode.OpTest, op(0), op(0), noOperand)
	ctx.b.EmitJump(bytecode.OpJne, elseL)
	if err := p.assign(ctx); err != nil {
		return err
	}
	ctx.b.EmitJump(bytecode.OpJmp, doneL)
	if err := p.expect(lexer.TokenColon, "':'"); err != nil {
		return err
	}
	ctx.b.BindLabel(elseL)
	if err := p.assign(ctx); err != nil {
		return err
	}
	ctx.b.BindLabel(doneL)
	return nil
}

// logor := logand ('||' logand)*  (short-circuit)
func (p *Parser) logor(ctx *codegenCtx) error {
	if err := p.logand(ctx); err != nil {
		return err
	}
	for p.cur.Type == lexer.TokenOrOr {
		if err := p.advance(); err != nil {
			return err
		}
		done := ctx.b.NewLabel()
		ctx.b.Emit(bytecode.OpTest, op(0), op(0), noOperand)
		ctx.b.EmitJump(bytecode.OpJe, done) // t2==0 means truthy: skip RHS
		if err := p.logand(ctx); err != nil {
			return err
		}
		ctx.b.BindLabel(done)
	}
	return nil
}

// logand := equality ('&&' equality)*  (short-circuit)
func (p *Parser) logand(ctx *codegenCtx) error {
	if err := p.equality(ctx); err != nil {
		return err
	}
	for p.cur.Type == lexer.TokenAndAnd {
		if err := p.advance(); err != nil {
			return err
		}
		done := ctx.b.NewLabel()
		ctx.b.Emit(bytecode.OpTest, op(0), op(0), noOperand)
		ctx.b.EmitJump(bytecode.OpJne, done) // t2!=0 means falsy: skip RHS
		if err := p.equality(ctx); err != nil {
			return err
		}
		ctx.b.BindLabel(done)
	}
	return nil
}

var equalityBranch = map[lexer.TokenType]bytecode.Opcode{
	lexer.TokenEq: bytecode.OpJe, lexer.TokenNotEq: bytecode.OpJne,
}

var relationalBranch = map[lexer.TokenType]bytecode.Opcode{
	lexer.TokenLt: bytecode.OpJl, lexer.TokenLtEq: bytecode.OpJle,
	lexer.TokenGt: bytecode.OpJg, lexer.TokenGtEq: bytecode.OpJge,
}

func (p *Parser) equality(ctx *codegenCtx) error {
	return p.cmpLevel(ctx, p.relational, equalityBranch)
}

func (p *Parser) relational(ctx *codegenCtx) error {
	return p.cmpLevel(ctx, p.additive, relationalBranch)
}

// cmpLevel implements one level of a comparison chain: evaluate LHS, push
// it, evaluate RHS, pop LHS back into t1, compare, and synthesise a bool
// into t0 by branching on the comparator's matching jump opcode. Grounded
// on original_source/compiler/codegen.c's emit_equalityexpr2 /
// emit_relationalexpr2 push/pop/cmp/movb/branch pattern, adapted to this
// port's own Cmp/Test opcode semantics.
func (p *Parser) cmpLevel(ctx *codegenCtx, next func(*codegenCtx) error, branch map[lexer.TokenType]bytecode.Opcode) error {
	if err := next(ctx); err != nil {
		return err
	}
	for {
		jop, ok := branch[p.cur.Type]
		if !ok {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
		if err := next(ctx); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpPop, op(1), noOperand, noOperand) // t1 <- LHS
		ctx.b.Emit(bytecode.OpCmp, op(1), op(0), noOperand)     // t2 <- Compare(LHS, RHS)
		done := ctx.b.NewLabel()
		ctx.b.Emit(bytecode.OpMoveBool, op(0), bytecode.OpB(true), noOperand)
		ctx.b.EmitJump(jop, done)
		ctx.b.Emit(bytecode.OpMoveBool, op(0), bytecode.OpB(false), noOperand)
		ctx.b.BindLabel(done)
	}
}

var additiveOp = map[lexer.TokenType]bytecode.Opcode{
	lexer.TokenPlus: bytecode.OpAdd, lexer.TokenMinus: bytecode.OpSub,
}

var multiplicativeOp = map[lexer.TokenType]bytecode.Opcode{
	lexer.TokenStar: bytecode.OpMul, lexer.TokenSlash: bytecode.OpDiv, lexer.TokenPercent: bytecode.OpMod,
}

func (p *Parser) additive(ctx *codegenCtx) error {
	return p.arithLevel(ctx, p.multiplicative, additiveOp)
}

func (p *Parser) multiplicative(ctx *codegenCtx) error {
	return p.arithLevel(ctx, p.unary, multiplicativeOp)
}

// arithLevel implements one level of left-associative binary arithmetic:
// LHS into t0, pushed; RHS into t0; popped back as t1 (LHS); op applied as
// t1 OP= t0, result copied into t0.
func (p *Parser) arithLevel(ctx *codegenCtx, next func(*codegenCtx) error, ops map[lexer.TokenType]bytecode.Opcode) error {
	if err := next(ctx); err != nil {
		return err
	}
	for {
		aop, ok := ops[p.cur.Type]
		if !ok {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
		if err := next(ctx); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpPop, op(1), noOperand, noOperand)
		ctx.b.Emit(aop, op(1), op(0), noOperand)
		ctx.b.Emit(bytecode.OpCopy, op(0), op(1), noOperand)
	}
}

var typeNames = []struct {
	test bytecode.Opcode
	name string
}{
	{bytecode.OpTestNull, "null"},
	{bytecode.OpTestBool, "boolean"},
	{bytecode.OpTestNumber, "number"},
	{bytecode.OpTestString, "string"},
	{bytecode.OpTestObject, "object"},
}

// unary := ('-' | '+' | '!' | 'typeof') unary | ('++' | '--') IDENT | postfix
func (p *Parser) unary(ctx *codegenCtx) error {
	switch p.cur.Type {
	case lexer.TokenMinus:
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.unary(ctx); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpNeg, op(0), noOperand, noOperand)
		return nil

	case lexer.TokenPlus:
		if err := p.advance(); err != nil {
			return err
		}
		return p.unary(ctx)

	case lexer.TokenNot:
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.unary(ctx); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpNot, op(0), noOperand, noOperand)
		return nil

	case lexer.TokenTypeof:
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.unary(ctx); err != nil {
			return err
		}
		return p.emitTypeof(ctx)

	case lexer.TokenInc, lexer.TokenDec:
		incr := p.cur.Type == lexer.TokenInc
		if err := p.advance(); err != nil {
			return err
		}
		if p.cur.Type != lexer.TokenIdent {
			return p.errf("expected identifier after prefix %s", map[bool]string{true: "++", false: "--"}[incr])
		}
		name, line := p.cur.Literal, p.cur.Line
		if err := p.advance(); err != nil {
			return err
		}
		_, addr, isHeap, found := Resolve(ctx.scope, name)
		if !found {
			return p.errAt(line, "undefined symbol %q", name)
		}
		ctx.emitLoadReg(0, addr, isHeap)
		if incr {
			ctx.b.Emit(bytecode.OpInc, op(0), noOperand, noOperand)
		} else {
			ctx.b.Emit(bytecode.OpDec, op(0), noOperand, noOperand)
		}
		ctx.emitStoreReg(0, addr, isHeap)
		return nil

	default:
		return p.postfix(ctx)
	}
}

// emitTypeof synthesises one of "null"/"boolean"/"number"/"string"/"object"
// into t0, adapted from original_source/compiler/codegen.c's
// emit_unarytype chain of type-test-and-branch.
func (p *Parser) emitTypeof(ctx *codegenCtx) error {
	done := ctx.b.NewLabel()
	for _, tn := range typeNames {
		ctx.b.Emit(tn.test, op(0), noOperand, noOperand)
		next := ctx.b.NewLabel()
		ctx.b.EmitJump(bytecode.OpJne, next)
		ctx.b.Emit(bytecode.OpMoveString, op(0), op(ctx.b.Intern(tn.name)), noOperand)
		ctx.b.EmitJump(bytecode.OpJmp, done)
		ctx.b.BindLabel(next)
	}
	ctx.b.Emit(bytecode.OpMoveString, op(0), op(ctx.b.Intern("unknown")), noOperand)
	ctx.b.BindLabel(done)
	return nil
}

// postfix := (IDENT postfixHead | primary) ('.' IDENT ('(' args ')')?)*
//
// The leading bare identifier gets special handling (see DESIGN.md "Bare
// references to system/child objects"): a symbol-table hit reads the
// variable; a miss followed by '(' is a call on `this`; a miss followed by
// '.' defers to OpFindObject at runtime; anything else is undefined.
func (p *Parser) postfix(ctx *codegenCtx) error {
	if p.cur.Type == lexer.TokenIdent {
		name, line := p.cur.Literal, p.cur.Line
		if err := p.advance(); err != nil {
			return err
		}
		switch {
		case p.cur.Type == lexer.TokenInc || p.cur.Type == lexer.TokenDec:
			return p.postIncDec(ctx, name, line)

		case p.cur.Type == lexer.TokenLParen:
			ctx.b.Emit(bytecode.OpMoveThis, op(0), noOperand, noOperand)
			if err := p.finishCall(ctx, name); err != nil {
				return err
			}

		default:
			if _, addr, isHeap, found := Resolve(ctx.scope, name); found {
				ctx.emitLoadReg(0, addr, isHeap)
			} else if p.cur.Type == lexer.TokenDot {
				ctx.b.Emit(bytecode.OpFindObject, op(0), op(ctx.b.Intern(name)), noOperand)
			} else {
				return p.errAt(line, "undefined symbol %q", name)
			}
		}
	} else {
		if err := p.primary(ctx); err != nil {
			return err
		}
	}

	for p.cur.Type == lexer.TokenDot {
		if err := p.advance(); err != nil {
			return err
		}
		methodName, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.finishCall(ctx, methodName); err != nil {
			return err
		}
	}
	return nil
}

// postIncDec compiles `name++`/`name--`: the expression's value is the
// variable's value *before* the update.
func (p *Parser) postIncDec(ctx *codegenCtx, name string, line int) error {
	_, addr, isHeap, found := Resolve(ctx.scope, name)
	if !found {
		return p.errAt(line, "undefined symbol %q", name)
	}
	incr := p.cur.Type == lexer.TokenInc
	if err := p.advance(); err != nil {
		return err
	}
	ctx.emitLoadReg(0, addr, isHeap) // old value: the expression's result
	ctx.emitLoadReg(1, addr, isHeap)
	if incr {
		ctx.b.Emit(bytecode.OpInc, op(1), noOperand, noOperand)
	} else {
		ctx.b.Emit(bytecode.OpDec, op(1), noOperand, noOperand)
	}
	ctx.emitStoreReg(1, addr, isHeap)
	return nil
}

// finishCall compiles a call to programName on the object handle currently
// in t0: `name(args)`, or, since spec.md §8's own scenarios read properties
// like `a.length` with no parens, `name` alone as sugar for a zero-argument
// call. The handle is parked in a hidden slot (not a register) so that
// evaluating the arguments — which may themselves contain arbitrarily
// nested calls reusing the same registers — can never clobber it.
func (p *Parser) finishCall(ctx *codegenCtx, programName string) error {
	addr, isHeap := ctx.declareHidden()
	ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
	ctx.emitStoreReg(0, addr, isHeap)

	argc := 0
	if p.cur.Type == lexer.TokenLParen {
		if err := p.advance(); err != nil {
			return err
		}
		if p.cur.Type != lexer.TokenRParen {
			for {
				if err := p.assign(ctx); err != nil {
					return err
				}
				ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
				argc++
				if p.cur.Type == lexer.TokenComma {
					if err := p.advance(); err != nil {
						return err
					}
					continue
				}
				break
			}
		}
		if err := p.expect(lexer.TokenRParen, "')'"); err != nil {
			return err
		}
	}

	ctx.emitLoadReg(0, addr, isHeap)
	ctx.b.Emit(bytecode.OpCall, op(ctx.b.Intern(programName)), op(0), op(argc))
	return nil
}

// primary := '(' assign ')' | 'this' | 'state' | NUMBER | STRING | 'true' |
//            'false' | 'null' | '[' (assign (',' assign)*)? ']'
//
// Array-literal syntax is a supplement spec.md's own grammar sketch omits
// but its worked examples require (`a=[1,2,3]`); it compiles to a call to
// the "Array" system object's variadic constructor, exactly like an
// ordinary funcall once the elements are pushed (see DESIGN.md).
func (p *Parser) primary(ctx *codegenCtx) error {
	switch p.cur.Type {
	case lexer.TokenLParen:
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.assign(ctx); err != nil {
			return err
		}
		return p.expect(lexer.TokenRParen, "')'")

	case lexer.TokenThis:
		ctx.b.Emit(bytecode.OpMoveThis, op(0), noOperand, noOperand)
		return p.advance()

	case lexer.TokenState:
		ctx.b.Emit(bytecode.OpMoveState, op(0), noOperand, noOperand)
		return p.advance()

	case lexer.TokenNumber:
		n, err := p.parseNumber(p.cur.Literal)
		if err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpMoveNumber, op(0), bytecode.OpF(float32(n)), noOperand)
		return p.advance()

	case lexer.TokenString:
		ctx.b.Emit(bytecode.OpMoveString, op(0), op(ctx.b.Intern(p.cur.Literal)), noOperand)
		return p.advance()

	case lexer.TokenTrue:
		ctx.b.Emit(bytecode.OpMoveBool, op(0), bytecode.OpB(true), noOperand)
		return p.advance()

	case lexer.TokenFalse:
		ctx.b.Emit(bytecode.OpMoveBool, op(0), bytecode.OpB(false), noOperand)
		return p.advance()

	case lexer.TokenNull:
		ctx.b.Emit(bytecode.OpMoveNull, op(0), noOperand, noOperand)
		return p.advance()

	case lexer.TokenLBracket:
		return p.arrayLiteral(ctx)

	default:
		return p.errf("unexpected token %q in expression", p.cur.Literal)
	}
}

func (p *Parser) arrayLiteral(ctx *codegenCtx) error {
	if err := p.expect(lexer.TokenLBracket, "'['"); err != nil {
		return err
	}
	ctx.b.Emit(bytecode.OpFindObject, op(0), op(ctx.b.Intern("Array")), noOperand)

	addr, isHeap := ctx.declareHidden()
	ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
	ctx.emitStoreReg(0, addr, isHeap)

	argc := 0
	if p.cur.Type != lexer.TokenRBracket {
		for {
			if err := p.assign(ctx); err != nil {
				return err
			}
			ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
			argc++
			if p.cur.Type == lexer.TokenComma {
				if err := p.advance(); err != nil {
					return err
				}
				continue
			}
			break
		}
	}
	if err := p.expect(lexer.TokenRBracket, "']'"); err != nil {
		return err
	}

	ctx.emitLoadReg(0, addr, isHeap)
	ctx.b.Emit(bytecode.OpCall, op(ctx.b.Intern(newArrayProgramName)), op(0), op(argc))
	return nil
}

// newArrayProgramName is the variadic constructor pkg/stdlib's Array system
// object binds (arity -1, see interp.Binder) to build a fresh array
// instance from a literal's elements.
const newArrayProgramName = "__new"
