// Package cond implements the structuring core's conditional and case
// analyzer (§4.4): classifying every Twoway/Nway block into its condFollow,
// cType, and usType, and tagging case-region membership. It runs after
// interval.Analyze, since a conditional header's usType depends on whether
// its follow escapes its enclosing loop (LoopHead/LoopFollow must already
// be set).
package cond

import (
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/traversal"
)

// Analyze classifies every Twoway and Nway block's structuring labels, per
// §4.4. postOrder is the traversal.PostDominatorDFS order (for computing
// immediate post-dominators).
func Analyze(p *proc.Proc, postOrder []block.ID, log *diag.Log) {
	doms, root := ImmPDom(p, postOrder)

	for _, b := range p.Blocks() {
		switch b.Kind() {
		case block.KindTwoway, block.KindNway:
			classifyHead(p, b, doms, root, log)
		}
	}

	// Case-region tagging (§4.2d) needs every case head's follow already
	// assigned, which classifyHead just did above, so it runs as a second
	// pass over the Nway heads.
	for _, b := range p.Blocks() {
		if b.Kind() != block.KindNway {
			continue
		}
		s := b.Structure()
		if s.CondFollow != block.NoID {
			traversal.CaseTaggingDFS(p, b.ID(), s.CondFollow)
		}
	}
}

func classifyHead(p *proc.Proc, b *block.Block, doms map[block.ID]block.ID, root block.ID, log *diag.Log) {
	s := b.Structure()
	follow, ok := doms[b.ID()]
	if !ok || b.ID() == root {
		// No meaningful post-dominator (e.g. every path from here diverges
		// before reaching a common exit) — degrade to goto form rather than
		// fail, per §7's "irreducible region" recovery.
		log.Degrade(b.Ord(), "block has no immediate post-dominator; emitting as unstructured")
		s.UsType = block.JumpInOutLoop
		if s.Kind == block.Seq {
			s.Kind = block.Seq
		}
		b.SetStructure(s)
		return
	}

	switch {
	case s.Kind == block.Loop && (s.LType == block.PreTested || (s.LType == block.PostTested && s.LatchNode == b.ID())):
		// interval.applyLoopType already collapsed this header to Loop: its
		// condition is the loop's own predicate.
	case s.Kind == block.Loop || s.Kind == block.LoopCond:
		s.Kind = block.LoopCond
	default:
		s.Kind = block.Cond
	}
	s.CondFollow = follow

	switch {
	case b.Kind() == block.KindNway:
		s.CType = block.Case
	case b.OutEdges()[block.BElse] == follow:
		s.CType = block.IfThen
	case b.OutEdges()[block.BThen] == follow:
		s.CType = block.IfElse
	default:
		s.CType = block.IfThenElse
	}

	if s.CType != block.Case {
		s.UsType = classifyUnstruct(p, b, follow)
	}

	b.SetStructure(s)
}

// classifyUnstruct implements §4.4's usType rule: Structured if the follow
// is reachable from both arms without crossing an enclosing loop header;
// JumpIntoCase if the follow lies inside a case region not headed by this
// block; JumpInOutLoop if the follow escapes this block's enclosing loop,
// or either arm enters a loop this block is not itself in.
func classifyUnstruct(p *proc.Proc, b *block.Block, follow block.ID) block.UnstructType {
	s := b.Structure()
	fb := p.Block(follow)
	fs := fb.Structure()

	myLoopHead := s.LoopHead
	if s.Kind == block.LoopCond {
		myLoopHead = b.ID()
	}

	// The follow escapes this conditional's enclosing loop if it belongs to
	// a different (necessarily outer, by nesting) loop than this block, or
	// to none while this block is inside one.
	if myLoopHead != block.NoID && fs.LoopHead != myLoopHead {
		return block.JumpInOutLoop
	}

	// An arm that enters a loop this block is not itself part of is a jump
	// into that loop's body from outside it.
	for _, succ := range b.OutEdges() {
		if succ == follow {
			continue
		}
		sucLoopHead := p.Block(succ).Structure().LoopHead
		if sucLoopHead != block.NoID && sucLoopHead != myLoopHead && !traversal.HasBackEdgeTo(p, succ, sucLoopHead) {
			if traversal.IsAncestorOf(p, sucLoopHead, b.ID()) {
				continue // b is itself inside that loop; not a jump-in
			}
			return block.JumpInOutLoop
		}
	}

	if fb.Structure().CaseHead != block.NoID && fb.Structure().CaseHead != b.ID() {
		return block.JumpIntoCase
	}

	return block.Structured
}
