package compiler

import (
	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/lexer"
)

// stmt := block | if_stmt | while_stmt | for_stmt | foreach_stmt |
//         return_stmt | breakpoint_stmt | 'break' ';' | 'continue' ';' | expr ';'
func (p *Parser) stmt(ctx *codegenCtx) error {
	switch p.cur.Type {
	case lexer.TokenLBrace:
		return p.block(ctx)
	case lexer.TokenIf:
		return p.ifStmt(ctx)
	case lexer.TokenWhile:
		return p.whileStmt(ctx)
	case lexer.TokenFor:
		return p.forStmt(ctx)
	case lexer.TokenForeach:
		return p.foreachStmt(ctx)
	case lexer.TokenReturn:
		return p.returnStmt(ctx)
	case lexer.TokenBreak:
		if err := p.advance(); err != nil {
			return err
		}
		if !ctx.inLoop() {
			return p.errf("break outside of a loop")
		}
		ctx.b.EmitJump(bytecode.OpJmp, ctx.breakLabel())
		return p.expect(lexer.TokenSemicolon, "';'")
	case lexer.TokenContinue:
		if err := p.advance(); err != nil {
			return err
		}
		if !ctx.inLoop() {
			return p.errf("continue outside of a loop")
		}
		ctx.b.EmitJump(bytecode.OpJmp, ctx.continueLabel())
		return p.expect(lexer.TokenSemicolon, "';'")
	case lexer.TokenBreakpoint:
		return p.breakpointStmt(ctx)
	case lexer.TokenSemicolon:
		return p.advance() // empty statement
	default:
		if err := p.expr(ctx); err != nil {
			return err
		}
		return p.expect(lexer.TokenSemicolon, "';'")
	}
}

func (p *Parser) block(ctx *codegenCtx) error {
	if err := p.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return err
	}
	for p.cur.Type != lexer.TokenRBrace {
		if p.cur.Type == lexer.TokenEOF {
			return p.errf("unexpected end of input in block")
		}
		if err := p.stmt(ctx); err != nil {
			return err
		}
	}
	return p.advance()
}

// if_stmt := 'if' '(' expr ')' stmt ('else' stmt)?
func (p *Parser) ifStmt(ctx *codegenCtx) error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	if err := p.expr(ctx); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}

	elseL, doneL := ctx.b.NewLabel(), ctx.b.NewLabel()
	ctx.b.Emit(bytecode.OpTest, op(0), op(0), noOperand)
	ctx.b.EmitJump(bytecode.OpJne, elseL) // falsy -> else

	if err := p.stmt(ctx); err != nil {
		return err
	}
	ctx.b.EmitJump(bytecode.OpJmp, doneL)
	ctx.b.BindLabel(elseL)

	if p.cur.Type == lexer.TokenElse {
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.stmt(ctx); err != nil {
			return err
		}
	}
	ctx.b.BindLabel(doneL)
	return nil
}

// while_stmt := 'while' '(' expr ')' stmt
func (p *Parser) whileStmt(ctx *codegenCtx) error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}

	condL, endL := ctx.b.NewLabel(), ctx.b.NewLabel()
	ctx.b.BindLabel(condL)
	if err := p.expr(ctx); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}
	ctx.b.Emit(bytecode.OpTest, op(0), op(0), noOperand)
	ctx.b.EmitJump(bytecode.OpJne, endL)

	ctx.pushLoop(condL, endL)
	err := p.stmt(ctx)
	ctx.popLoop()
	if err != nil {
		return err
	}

	ctx.b.EmitJump(bytecode.OpJmp, condL)
	ctx.b.BindLabel(endL)
	return nil
}

// for_stmt := 'for' '(' expr? ';' expr? ';' <balanced tokens up to ')'> ')' stmt
//
// The post clause is scanned as a balanced token run (tracking paren/
// bracket depth so a nested call's own parens don't confuse the scan) and
// replayed through a bufSource after the body, since its code must execute
// after the body but its tokens appear before it in the source.
func (p *Parser) forStmt(ctx *codegenCtx) error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}

	if p.cur.Type != lexer.TokenSemicolon {
		if err := p.expr(ctx); err != nil {
			return err
		}
	}
	if err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}

	condL, endL, postL := ctx.b.NewLabel(), ctx.b.NewLabel(), ctx.b.NewLabel()
	ctx.b.BindLabel(condL)
	if p.cur.Type != lexer.TokenSemicolon {
		if err := p.expr(ctx); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpTest, op(0), op(0), noOperand)
		ctx.b.EmitJump(bytecode.OpJne, endL)
	}
	if err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}

	postToks, err := p.collectBalanced()
	if err != nil {
		return err
	}
	if err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}

	ctx.pushLoop(postL, endL)
	err = p.stmt(ctx)
	ctx.popLoop()
	if err != nil {
		return err
	}

	ctx.b.BindLabel(postL)
	if len(postToks) > 0 {
		if err := p.withSource(&bufSource{toks: postToks}, func() error {
			return p.expr(ctx)
		}); err != nil {
			return err
		}
	}
	ctx.b.EmitJump(bytecode.OpJmp, condL)
	ctx.b.BindLabel(endL)
	return nil
}

// collectBalanced consumes tokens up to (but not including) the ')' that
// closes the enclosing for(...), tracking paren/bracket depth so a nested
// call in the post clause doesn't end the scan early.
func (p *Parser) collectBalanced() ([]lexer.Token, error) {
	var toks []lexer.Token
	depth := 0
	for {
		if p.cur.Type == lexer.TokenEOF {
			return nil, p.errf("unexpected end of input in for-loop post clause")
		}
		if depth == 0 && p.cur.Type == lexer.TokenRParen {
			return toks, nil
		}
		switch p.cur.Type {
		case lexer.TokenLParen, lexer.TokenLBracket:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket:
			depth--
		}
		toks = append(toks, p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// foreach_stmt := 'foreach' '(' IDENT 'in' expr ')' stmt
//
// Desugars to an index-driven while loop over the collection's `length`
// and `get(i)` built-ins (see pkg/stdlib's Array/Dictionary bindings),
// supplementing spec.md's grammar sketch, which names `foreach`/`in` as
// tokens but gives no production for them.
func (p *Parser) foreachStmt(ctx *codegenCtx) error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenLParen, "'('"); err != nil {
		return err
	}
	varName := p.cur.Literal
	if err := p.expect(lexer.TokenIdent, "identifier"); err != nil {
		return err
	}
	if err := p.expect(lexer.TokenIn, "'in'"); err != nil {
		return err
	}
	if err := p.expr(ctx); err != nil { // the collection
		return err
	}
	if err := p.expect(lexer.TokenRParen, "')'"); err != nil {
		return err
	}

	collAddr, collHeap := ctx.declareHidden()
	ctx.emitStoreReg(0, collAddr, collHeap)
	idxAddr, idxHeap := ctx.declareHidden()
	ctx.b.Emit(bytecode.OpMoveNumber, op(0), bytecode.OpF(0), noOperand)
	ctx.emitStoreReg(0, idxAddr, idxHeap)

	// the loop variable itself: an ordinary symbol, reusing a visible
	// symbol of the same name if one resolves, otherwise declared fresh in
	// the current scope.
	var varAddr int
	var varHeap bool
	if _, a, h, found := Resolve(ctx.scope, varName); found {
		varAddr, varHeap = a, h
	} else if ctx.scope.isHeap {
		varAddr, varHeap = ctx.scope.DeclareHeap(varName), true
	} else {
		varAddr, varHeap = ctx.scope.DeclareLocal(varName), false
	}

	condL, endL, incL := ctx.b.NewLabel(), ctx.b.NewLabel(), ctx.b.NewLabel()
	ctx.b.BindLabel(condL)

	ctx.emitLoadReg(0, collAddr, collHeap)
	if err := p.emitCall(ctx, "length"); err != nil { // t0 <- length
		return err
	}
	ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
	ctx.emitLoadReg(0, idxAddr, idxHeap)
	ctx.b.Emit(bytecode.OpPop, op(1), noOperand, noOperand) // t1 <- length
	ctx.b.Emit(bytecode.OpCmp, op(0), op(1), noOperand)     // t2 <- Compare(idx, length)
	ctx.b.EmitJump(bytecode.OpJge, endL)                    // idx >= length -> done

	ctx.emitLoadReg(0, collAddr, collHeap)
	if err := p.emitCall(ctx, "get", func() error {
		ctx.emitLoadReg(0, idxAddr, idxHeap)
		return nil
	}); err != nil {
		return err
	}
	ctx.emitStoreReg(0, varAddr, varHeap)

	ctx.pushLoop(incL, endL) // continue re-increments before re-testing
	err := p.stmt(ctx)
	ctx.popLoop()
	if err != nil {
		return err
	}

	ctx.b.BindLabel(incL)
	ctx.emitLoadReg(0, idxAddr, idxHeap)
	ctx.b.Emit(bytecode.OpInc, op(0), noOperand, noOperand)
	ctx.emitStoreReg(0, idxAddr, idxHeap)
	ctx.b.EmitJump(bytecode.OpJmp, condL)
	ctx.b.BindLabel(endL)
	return nil
}

// emitCall compiles a call to programName on the object handle currently
// in t0, with one argument per thunk (each thunk computes its argument
// into t0; emitCall pushes it). Used for calls the compiler synthesises
// itself rather than parses from source (foreach's desugared length/get
// protocol) — expr.go's finishCall is the source-driven counterpart.
func (p *Parser) emitCall(ctx *codegenCtx, programName string, argThunks ...func() error) error {
	addr, isHeap := ctx.declareHidden()
	ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
	ctx.emitStoreReg(0, addr, isHeap)
	for _, thunk := range argThunks {
		if err := thunk(); err != nil {
			return err
		}
		ctx.b.Emit(bytecode.OpPush, op(0), noOperand, noOperand)
	}
	ctx.emitLoadReg(0, addr, isHeap)
	ctx.b.Emit(bytecode.OpCall, op(ctx.b.Intern(programName)), op(0), op(len(argThunks)))
	return nil
}

// breakpoint_stmt := 'breakpoint' STRING ';'
//
// Emits a nop carrying the label in its text-pool operand. The label lets
// `ember run --debug` report which breakpoint fired and lets the user
// disable it by name. Compiled unconditionally — executing a breakpoint nop
// is a true no-op unless the VM's interactive debugger has been installed
// via vm.EnableDebugger, so leaving a `breakpoint` statement in a script
// costs nothing for a normal `ember run`.
func (p *Parser) breakpointStmt(ctx *codegenCtx) error {
	if err := p.advance(); err != nil {
		return err
	}
	label, err := p.expectString()
	if err != nil {
		return err
	}
	if err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}
	ctx.b.Emit(bytecode.OpNop, op(ctx.b.Intern(label)), noOperand, bytecode.OpB(true))
	return nil
}

// return_stmt := 'return' expr? ';'
func (p *Parser) returnStmt(ctx *codegenCtx) error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.cur.Type == lexer.TokenSemicolon {
		ctx.b.Emit(bytecode.OpMoveNull, op(0), noOperand, noOperand)
	} else {
		if err := p.expr(ctx); err != nil {
			return err
		}
	}
	if err := p.expect(lexer.TokenSemicolon, "';'"); err != nil {
		return err
	}
	ctx.b.Emit(bytecode.OpRet, noOperand, noOperand, noOperand)
	return nil
}
