package compiler

import (
	"fmt"

	"github.com/emberlang/ember/pkg/bytecode"
)

// codegenCtx bundles everything one program body's codegen needs: the
// builder it emits into, the innermost (stack or heap) scope, the enclosing
// object's heap scope (for bare heap-variable reads from inside a
// function/state body), and the loop label stacks break/continue resolve
// against.
type codegenCtx struct {
	p        *Parser
	b        *bytecode.Builder
	scope    *Scope
	objScope *Scope

	breakLabels    []bytecode.Label
	continueLabels []bytecode.Label
	hiddenSeq      int
}

func newCtx(p *Parser, b *bytecode.Builder, scope, objScope *Scope) *codegenCtx {
	return &codegenCtx{p: p, b: b, scope: scope, objScope: objScope}
}

func (ctx *codegenCtx) pushLoop(cont, brk bytecode.Label) {
	ctx.continueLabels = append(ctx.continueLabels, cont)
	ctx.breakLabels = append(ctx.breakLabels, brk)
}

func (ctx *codegenCtx) popLoop() {
	ctx.continueLabels = ctx.continueLabels[:len(ctx.continueLabels)-1]
	ctx.breakLabels = ctx.breakLabels[:len(ctx.breakLabels)-1]
}

func (ctx *codegenCtx) inLoop() bool { return len(ctx.breakLabels) > 0 }

func (ctx *codegenCtx) continueLabel() bytecode.Label {
	return ctx.continueLabels[len(ctx.continueLabels)-1]
}

func (ctx *codegenCtx) breakLabel() bytecode.Label {
	return ctx.breakLabels[len(ctx.breakLabels)-1]
}

// declareHidden reserves a compiler-internal slot not reachable from script
// source ('$' can't start an identifier per pkg/lexer, so there's no
// collision with a user-declared name), on whichever kind of scope is
// current. Used by array-literal codegen to hold the in-progress array's
// handle across evaluating its elements.
func (ctx *codegenCtx) declareHidden() (addr int, isHeap bool) {
	ctx.hiddenSeq++
	name := fmt.Sprintf("$h%d", ctx.hiddenSeq)
	if ctx.scope.isHeap {
		return ctx.scope.DeclareHeap(name), true
	}
	return ctx.scope.DeclareLocal(name), false
}
