// Package emit implements the structuring core's final stage (§4.5): the
// recursive Generate procedure that walks a structured procedure and
// drives an HLLCode sink, threading the follow and goto stacks described in
// §4.5 and §5.
package emit

import "github.com/boomslang/structurer/ir"

// HLLCode is the high-level-code emitter interface the structurer is the
// only caller of (§6.3). Every concrete sink (plain text, a real pseudocode
// writer) implements this; Generate never writes output itself.
//
// Calls to this interface must form a well-nested bracket sequence — a
// violation is a core bug (an emit-side defect), never a caller error, per
// §6.3.
type HLLCode interface {
	AddLabel(indent, ord int)
	AddGoto(indent, ord int)
	AddContinue(indent int)
	AddBreak(indent int)
	AddReturnStatement(indent int, expr ir.Expr)

	AddPretestedLoopHeader(indent int, cond ir.Expr)
	AddPretestedLoopEnd(indent int)
	AddPosttestedLoopHeader(indent int)
	AddPosttestedLoopEnd(indent int, cond ir.Expr)
	AddEndlessLoopHeader(indent int)
	AddEndlessLoopEnd(indent int)

	AddIfCondHeader(indent int, cond ir.Expr)
	AddIfCondEnd(indent int)
	AddIfElseCondHeader(indent int, cond ir.Expr)
	AddIfElseCondOption(indent int)
	AddIfElseCondEnd(indent int)

	AddCaseCondHeader(indent int, switchVar ir.Expr)
	AddCaseCondOption(indent int, caseVal int)
	AddCaseCondOptionEnd(indent int)
	AddCaseCondEnd(indent int)

	// AddStmt emits one ordinary (non-control-transfer) statement from a
	// block's body; it is not part of the bracket-balanced control set but
	// is how WriteBB gets a block's instructions onto the page.
	AddStmt(indent int, s ir.Stmt)

	// Warn surfaces a non-fatal diagnostic produced during emission (e.g.
	// "block has no out edge") to whatever the sink's diagnostic channel is.
	Warn(message string)
}
