// Package interval implements the structuring core's loop analyzer (§4.3):
// finding loop headers via back-edges, selecting the latch and follow, and
// classifying the loop type. It runs after traversal.Run has stamped every
// block, and before the cond package (a loop header is also, potentially, a
// conditional header — cond needs LoopHead/LoopFollow already set to
// classify a LoopCond block's JumpInOutLoop case).
package interval

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/traversal"
)

// Loop describes one discovered loop region.
type Loop struct {
	Header block.ID
	Latch  block.ID
	Follow block.ID // block.NoID if the loop has no follow (e.g. a function-ending endless loop)
	Type   block.LoopType

	// members is the bitset of blocks (indexed by ord) in this loop's body,
	// mirroring extras/cfg/df.go's per-block bitsets rather than a slice.
	members *bitset.BitSet
}

// Analyze finds every loop in the procedure and tags each member block's
// LoopHead, per §4.3. It requires traversal.Run to have already stamped
// loopStamps/revLoopStamps/ord on every block. Headers are examined in rpo
// slice order (ascending ord, so a nested loop's header comes before its
// enclosing loop's); the discovery order does not affect the result, since
// tagLoopHeads orders the loops itself.
func Analyze(p *proc.Proc, rpo []block.ID, log *diag.Log) []*Loop {
	n := len(rpo)
	var loops []*Loop
	headerOf := make(map[block.ID]*Loop, n)

	for _, h := range rpo {
		latch := findLatch(p, h)
		if latch == block.NoID {
			continue // not a loop header
		}
		lp := &Loop{Header: h, Latch: latch, members: bitset.New(uint(n))}
		tagMembers(p, lp)
		lp.Follow = findFollow(p, lp, n)
		lp.Type = classify(p, lp)
		applyLoopType(p, lp)
		loops = append(loops, lp)
		headerOf[h] = lp
	}

	tagLoopHeads(p, rpo, loops)
	return loops
}

// findLatch scans h's in-edges for back edges (§4.2's HasBackEdgeTo) and
// returns the one with the largest loopStamps[0], per §4.3's latch rule.
// Returns block.NoID if h has no back edge, i.e. is not a loop header.
func findLatch(p *proc.Proc, h block.ID) block.ID {
	latch := block.NoID
	best := -1
	for _, pred := range p.Block(h).InEdges() {
		if !traversal.HasBackEdgeTo(p, pred, h) {
			continue
		}
		stamp := p.Block(pred).LoopStamps()[0]
		if stamp > best {
			best = stamp
			latch = pred
		}
	}
	return latch
}

// tagMembers marks every block b with inLoop(h, l) true in lp.members,
// mirroring BasicBlock::inLoop directly rather than growing a worklist.
func tagMembers(p *proc.Proc, lp *Loop) {
	h, l := p.Block(lp.Header), p.Block(lp.Latch)
	hs, ls := h.LoopStamps(), l.LoopStamps()
	hrs, lrs := h.RevLoopStamps(), l.RevLoopStamps()

	for _, b := range p.Blocks() {
		if b.ID() == lp.Latch {
			lp.members.Set(uint(b.Ord()))
			continue
		}
		bs, brs := b.LoopStamps(), b.RevLoopStamps()
		fwd := hs[0] < bs[0] && bs[1] < hs[1] && bs[0] < ls[0] && ls[1] < bs[1]
		rev := hrs[0] < brs[0] && brs[1] < hrs[1] && brs[0] < lrs[0] && lrs[1] < brs[1]
		if fwd || rev {
			lp.members.Set(uint(b.Ord()))
		}
	}
	lp.members.Set(uint(h.Ord()))
}

// findFollow returns the lowest-ord block outside the loop body that is the
// target of an edge from a block inside it (§4.3's follow rule). Returns
// block.NoID if every exit from the loop is unstructured (goto-only), i.e.
// an Endless loop with no natural follow.
func findFollow(p *proc.Proc, lp *Loop, n int) block.ID {
	bestOrd := n + 1
	follow := block.NoID
	for _, b := range p.Blocks() {
		if !lp.members.Test(uint(b.Ord())) {
			continue
		}
		for _, succ := range b.OutEdges() {
			sb := p.Block(succ)
			if lp.members.Test(uint(sb.Ord())) {
				continue
			}
			if sb.Ord() < bestOrd {
				bestOrd = sb.Ord()
				follow = succ
			}
		}
	}
	return follow
}

// classify selects the loop type per §4.3's table: PreTested if the header
// is Twoway and one out-edge is the follow; PostTested if the latch is
// Twoway and one out-edge is the follow; Endless otherwise.
func classify(p *proc.Proc, lp *Loop) block.LoopType {
	if lp.Follow == block.NoID {
		return block.Endless
	}
	h := p.Block(lp.Header)
	if h.Kind() == block.KindTwoway {
		for _, e := range h.OutEdges() {
			if e == lp.Follow {
				return block.PreTested
			}
		}
	}
	l := p.Block(lp.Latch)
	if l.Kind() == block.KindTwoway {
		for _, e := range l.OutEdges() {
			if e == lp.Follow {
				return block.PostTested
			}
		}
	}
	return block.Endless
}

// applyLoopType records the loop's header/latch/follow/type on the header
// block's Structure, collapsing a header that is also a conditional
// (LoopCond) back to plain Loop when the loop type makes the header's own
// condition the loop's predicate and nothing else needs to be emitted for
// it: PreTested (the header's Twoway condition IS the while-test) or a
// single-block PostTested loop (header == latch, so its condition IS the
// do-while test) — mirrors BasicBlock::setLoopType exactly.
func applyLoopType(p *proc.Proc, lp *Loop) {
	h := p.Block(lp.Header)
	s := h.Structure()
	if s.Kind != block.Loop && s.Kind != block.LoopCond {
		s.Kind = block.Loop
	}
	s.LType = lp.Type
	s.LatchNode = lp.Latch
	s.LoopFollow = lp.Follow
	if lp.Type == block.PreTested || (lp.Type == block.PostTested && lp.Header == lp.Latch) {
		s.Kind = block.Loop
	}
	h.SetStructure(s)
}

// tagLoopHeads assigns LoopHead on every block inside some loop to that
// loop's header. An outer loop's header finishes the forward DFS after every
// block nested inside it, so it has a larger ord than any of them; loops are
// therefore walked outermost-to-innermost by descending header ord, and
// simply overwriting LoopHead for each member leaves every block tagged with
// its innermost enclosing loop's header, matching the original's per-node
// "last write wins" tagging.
func tagLoopHeads(p *proc.Proc, rpo []block.ID, loops []*Loop) {
	sort.Slice(loops, func(i, j int) bool {
		return p.Block(loops[i].Header).Ord() > p.Block(loops[j].Header).Ord()
	})
	for _, lp := range loops {
		for _, b := range p.Blocks() {
			if lp.members.Test(uint(b.Ord())) {
				s := b.Structure()
				s.LoopHead = lp.Header
				b.SetStructure(s)
			}
		}
	}
}
