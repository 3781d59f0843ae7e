package emit

import (
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/ir"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/traversal"
)

func contains(ids []block.ID, target block.ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func top(ids []block.ID) block.ID {
	if len(ids) == 0 {
		return block.NoID
	}
	return ids[len(ids)-1]
}

// isLatchNode reports whether b is the latch of its own enclosing loop,
// mirroring BasicBlock::isLatchNode's use of the block's own loopHead
// rather than the recursion's latch parameter.
func isLatchNode(p *proc.Proc, id block.ID) bool {
	s := p.Block(id).Structure()
	if s.LoopHead == block.NoID {
		return false
	}
	return p.Block(s.LoopHead).Structure().LatchNode == id
}

// allParentsGenerated reports whether every forward (non-back-edge)
// predecessor of id has already been emitted, mirroring
// BasicBlock::allParentsGenerated. It is used to decide whether a
// goto-set member can be generated in place yet or must be deferred.
func allParentsGenerated(p *proc.Proc, id block.ID) bool {
	for _, pred := range p.Block(id).InEdges() {
		if traversal.HasBackEdgeTo(p, pred, id) {
			continue
		}
		if p.Block(pred).Traversed() != block.DfsCodegen {
			return false
		}
	}
	return true
}

// emitGotoAndLabel emits a goto (at the correct indentation) with the
// destination label for dest, or a return/continue/break when one of those
// applies, mirroring BasicBlock::emitGotoAndLabel exactly: the loopHead
// consulted is the SOURCE block's own loopHead, not dest's.
func emitGotoAndLabel(p *proc.Proc, hll HLLCode, indent int, src, dest block.ID) {
	db := p.Block(dest)
	if db.Kind() == block.KindReturn {
		hll.AddReturnStatement(indent, db.ReturnExpr())
		return
	}
	srcLoopHead := p.Block(src).Structure().LoopHead
	if srcLoopHead != block.NoID {
		if srcLoopHead == dest {
			hll.AddContinue(indent)
			return
		}
		if p.Block(srcLoopHead).Structure().LoopFollow == dest {
			hll.AddBreak(indent)
			return
		}
	}
	hll.AddGoto(indent, db.Ord())
	db.SetHLLLabel(true)
}

// lastStmt returns the final statement of a block's final RTL, or nil.
func lastStmt(b *block.Block) ir.Stmt {
	rtls := b.Instructions()
	if len(rtls) == 0 {
		return nil
	}
	return rtls[len(rtls)-1].Last()
}

// writeBB emits a block's body (every statement except the trailing
// control-transfer, which the caller's construct header/footer already
// represents) and records the nesting depth it was emitted at, mirroring
// BasicBlock::WriteBB.
func writeBB(hll HLLCode, b *block.Block, indent int) {
	hll.AddLabel(indent, b.Ord())
	rtls := b.Instructions()
	last := lastStmt(b)
	for i, rtl := range rtls {
		isLastRTL := i == len(rtls)-1
		for j, s := range rtl.Stmts {
			isLastStmt := isLastRTL && j == len(rtl.Stmts)-1
			if isLastStmt && s == last && (s.Kind() == ir.KindBranch || s.Kind() == ir.KindCase) {
				continue
			}
			hll.AddStmt(indent, s)
		}
	}
	b.SetIndentLevel(indent)
}

func switchInfo(b *block.Block) *ir.SwitchInfo {
	return lastStmt(b).SwitchInfo()
}

// Generate recursively walks the procedure starting at id, driving hll, per
// §4.5's control rules and per-sType dispatch. followStack is the stack of
// conditional/loop follows currently open; gotoStack is the set of
// cross-structure targets that must be reached via goto; latch is the latch
// node of the innermost loop currently being generated (block.NoID outside
// any loop).
//
// Both stacks are passed by value; a push is a new slice returned by
// append and is implicitly popped when the call that pushed it returns, so
// a caller's own stack is never mutated out from under it, as long as
// sibling recursive calls run strictly sequentially (they do: structuring
// is single-threaded per procedure).
func Generate(p *proc.Proc, hll HLLCode, log *diag.Log, id block.ID, indent int, latch block.ID, followStack, gotoStack []block.ID) {
	b := p.Block(id)
	enclFollow := top(followStack)

	if contains(gotoStack, id) && !isLatchNode(p, id) &&
		((latch != block.NoID && id == p.Block(p.Block(latch).Structure().LoopHead).Structure().LoopFollow) ||
			!allParentsGenerated(p, id)) {
		emitGotoAndLabel(p, hll, indent, id, id)
		return
	}
	if contains(followStack, id) {
		if id != enclFollow {
			emitGotoAndLabel(p, hll, indent, id, id)
		}
		return
	}

	if b.Traversed() == block.DfsCodegen {
		diag.Assertf(b.Structure().Kind == block.Loop && b.Structure().LType == block.PostTested && b.Structure().LatchNode == id,
			"block %d already emitted outside a single-block post-tested loop", b.Ord())
		return
	}

	if isLatchNode(p, id) {
		head := b.Structure().LoopHead
		want := p.Block(head).IndentLevel()
		if p.Block(head).Structure().LType == block.PreTested {
			want++
		}
		if indent == want {
			b.SetTraversed(block.DfsCodegen)
			writeBB(hll, b, indent)
			return
		}
		emitGotoAndLabel(p, hll, indent, id, id)
		return
	}

	b.SetTraversed(block.DfsCodegen)

	switch b.Structure().Kind {
	case block.Loop, block.LoopCond:
		generateLoop(p, hll, log, id, indent, followStack, gotoStack)
	case block.Cond:
		generateCond(p, hll, log, id, indent, latch, followStack, gotoStack)
	default:
		generateSeq(p, hll, log, id, indent, latch, followStack, gotoStack)
	}
}

func generateLoop(p *proc.Proc, hll HLLCode, log *diag.Log, id block.ID, indent int, followStack, gotoStack []block.ID) {
	b := p.Block(id)
	s := b.Structure()

	if s.LoopFollow != block.NoID {
		followStack = append(followStack, s.LoopFollow)
	}

	if s.LType == block.PreTested {
		writeBB(hll, b, indent)

		cond := b.Cond()
		loopBody := b.OutEdges()[block.BThen]
		if loopBody == s.LoopFollow {
			loopBody = b.OutEdges()[block.BElse]
			cond = cond.Negate().Simplify()
		}
		hll.AddPretestedLoopHeader(indent, cond)

		Generate(p, hll, log, loopBody, indent+1, s.LatchNode, followStack, gotoStack)

		latchB := p.Block(s.LatchNode)
		if latchB.Traversed() != block.DfsCodegen {
			latchB.SetTraversed(block.DfsCodegen)
			writeBB(hll, latchB, indent+1)
		}

		// The original's double WriteBB: the pre-tested header's own RTLs
		// are re-emitted once more just inside the closing brace, since a
		// continue targeting this header's label must land inside the loop
		// body, not before it.
		b.SetHLLLabel(false)
		writeBB(hll, b, indent+1)

		hll.AddPretestedLoopEnd(indent)
	} else {
		if s.LType == block.Endless {
			hll.AddEndlessLoopHeader(indent)
		} else {
			hll.AddPosttestedLoopHeader(indent)
		}

		if s.Kind == block.LoopCond {
			s.Kind = block.Cond
			b.SetStructure(s)
			b.SetTraversed(block.Untraversed)
			Generate(p, hll, log, id, indent+1, s.LatchNode, followStack, gotoStack)
		} else {
			writeBB(hll, b, indent+1)
			Generate(p, hll, log, b.OutEdges()[0], indent+1, s.LatchNode, followStack, gotoStack)
		}

		latchB := p.Block(s.LatchNode)
		if latchB.Traversed() != block.DfsCodegen {
			latchB.SetTraversed(block.DfsCodegen)
			writeBB(hll, latchB, indent+1)
		}

		if s.LType == block.PostTested {
			hll.AddPosttestedLoopEnd(indent, latchB.Cond())
		} else {
			hll.AddEndlessLoopEnd(indent)
		}
	}

	if s.LoopFollow != block.NoID {
		followStack = followStack[:len(followStack)-1]
		fb := p.Block(s.LoopFollow)
		if fb.Traversed() != block.DfsCodegen {
			Generate(p, hll, log, s.LoopFollow, indent, block.NoID, followStack, gotoStack)
		} else {
			emitGotoAndLabel(p, hll, indent, id, s.LoopFollow)
		}
	}
}

func generateCond(p *proc.Proc, hll HLLCode, log *diag.Log, id block.ID, indent int, latch block.ID, followStack, gotoStack []block.ID) {
	b := p.Block(id)
	s := b.Structure()

	// A LoopCond header re-enters here after generateLoop temporarily set
	// Kind to Cond to drive the shared dispatch; restore it so any later
	// query of this block (e.g. a sibling's follow-loop-head lookup) still
	// sees LoopCond, mirroring the original's "reset this back to LoopCond
	// if it was originally of this type".
	if s.LatchNode != block.NoID {
		s.Kind = block.LoopCond
		b.SetStructure(s)
	}

	tmpCondFollow := block.NoID
	gotoPushed := 0

	switch {
	case s.CType == block.Case:
		followStack = append(followStack, s.CondFollow)
	case s.CondFollow != block.NoID && s.UsType == block.Structured:
		followStack = append(followStack, s.CondFollow)
	case s.CondFollow != block.NoID:
		if s.UsType == block.JumpInOutLoop {
			myLoopHead := s.LoopHead
			if s.Kind == block.LoopCond {
				myLoopHead = id
			}

			gotoStack = append(gotoStack, s.CondFollow)
			gotoPushed++

			if latch != block.NoID {
				gotoStack = append(gotoStack, latch)
				gotoPushed++
			}

			followLoopHead := p.Block(s.CondFollow).Structure().LoopHead
			if followLoopHead != block.NoID && followLoopHead != myLoopHead {
				gotoStack = append(gotoStack, followLoopHead)
				gotoPushed++
			}
		}

		if s.CType == block.IfThen {
			tmpCondFollow = b.OutEdges()[block.BElse]
		} else {
			tmpCondFollow = b.OutEdges()[block.BThen]
		}

		if s.UsType == block.JumpIntoCase {
			followStack = append(followStack, tmpCondFollow)
		}
	}

	writeBB(hll, b, indent)

	if s.CType == block.Case {
		info := switchInfo(b)
		hll.AddCaseCondHeader(indent, info.SwitchVar)

		for i, succ := range b.OutEdges() {
			hll.AddCaseCondOption(indent, info.Lower+i)
			generateCondArm(p, hll, log, id, succ, indent+1, latch, followStack, gotoStack)
			hll.AddCaseCondOptionEnd(indent)
		}
		hll.AddCaseCondEnd(indent)
	} else {
		cond := b.Cond()
		if s.CType == block.IfElse {
			cond = cond.Negate().Simplify()
		}

		thenSucc, elseSucc := b.OutEdges()[block.BThen], b.OutEdges()[block.BElse]
		primary := thenSucc
		if s.CType == block.IfElse {
			primary = elseSucc
		}

		if s.CType == block.IfThenElse {
			hll.AddIfElseCondHeader(indent, cond)
			generateCondArm(p, hll, log, id, thenSucc, indent+1, latch, followStack, gotoStack)
			hll.AddIfElseCondOption(indent)
			generateCondArm(p, hll, log, id, elseSucc, indent+1, latch, followStack, gotoStack)
			hll.AddIfElseCondEnd(indent)
		} else {
			hll.AddIfCondHeader(indent, cond)
			generateCondArm(p, hll, log, id, primary, indent+1, latch, followStack, gotoStack)
			hll.AddIfCondEnd(indent)
		}
	}

	if s.CondFollow != block.NoID {
		if s.UsType == block.Structured || s.UsType == block.JumpIntoCase {
			diag.Assertf(gotoPushed == 0, "structured/jump-into-case follow must not use the goto stack")
			followStack = followStack[:len(followStack)-1]
		} else {
			gotoStack = gotoStack[:len(gotoStack)-gotoPushed]
		}

		target := tmpCondFollow
		if target == block.NoID {
			target = s.CondFollow
		}
		generateCondArm(p, hll, log, id, target, indent, latch, followStack, gotoStack)
	}
}

// generateCondArm emits one successor of a conditional/case header: either a
// recursive Generate call, or a bare goto-and-label if that successor was
// already emitted by the time control reaches here.
func generateCondArm(p *proc.Proc, hll HLLCode, log *diag.Log, head, succ block.ID, indent int, latch block.ID, followStack, gotoStack []block.ID) {
	sb := p.Block(succ)
	hs := p.Block(head).Structure()
	if sb.Traversed() == block.DfsCodegen || (hs.LoopHead != block.NoID && succ == p.Block(hs.LoopHead).Structure().LoopFollow) {
		emitGotoAndLabel(p, hll, indent, head, succ)
		return
	}
	Generate(p, hll, log, succ, indent, latch, followStack, gotoStack)
}

func generateSeq(p *proc.Proc, hll HLLCode, log *diag.Log, id block.ID, indent int, latch block.ID, followStack, gotoStack []block.ID) {
	b := p.Block(id)

	writeBB(hll, b, indent)

	if b.Kind() == block.KindReturn {
		hll.AddReturnStatement(indent, b.ReturnExpr())
		return
	}

	out := b.OutEdges()
	if len(out) == 0 {
		const msg = "block has no out edge"
		log.Warn(b.Ord(), msg)
		hll.Warn(msg)
		return
	}

	child := out[0]
	cb := p.Block(child)
	s := b.Structure()
	cs := cb.Structure()

	sameCaseRegion := s.CaseHead == cs.CaseHead ||
		(s.CaseHead != block.NoID && child == p.Block(s.CaseHead).Structure().CondFollow)

	needsGoto := cb.Traversed() == block.DfsCodegen ||
		(cs.LoopHead != s.LoopHead && (!allParentsGenerated(p, child) || contains(followStack, child))) ||
		(latch != block.NoID && p.Block(p.Block(latch).Structure().LoopHead).Structure().LoopFollow == child) ||
		!sameCaseRegion

	if needsGoto {
		emitGotoAndLabel(p, hll, indent, id, child)
		return
	}
	Generate(p, hll, log, child, indent, latch, followStack, gotoStack)
}
