// Package traversal implements the structuring core's graph traversals
// (§4.2): the forward and reverse loop-stamp DFS used for O(1) ancestor
// queries, and the post-dominator DFS used by the interval and conditional
// analyzers. Each pass marks the blocks it visits with its own
// TraversalState value; Run resets every block's state before each pass.
package traversal

import (
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/proc"
)

// Order is the result of a loop-stamp DFS: the reverse-post-order list of
// blocks visited (Ord is each block's index within it).
type Order struct {
	RPO []block.ID
}

// ForwardLoopStamps runs §4.2(a): starting at entry, recursively visit
// unvisited out-edge children in order, stamping loopStamps[0] on entry and
// loopStamps[1] after all children, and appending to the reverse-post-order
// list. Invariant 5 (stamp nesting reflects forward ancestry) follows from
// this numbering.
func ForwardLoopStamps(p *proc.Proc, entry block.ID) Order {
	time := 0
	var rpo []block.ID
	var visit func(id block.ID)
	visit = func(id block.ID) {
		b := p.Block(id)
		b.SetTraversed(block.DfsLNum)
		b.SetLoopStamps(time, b.LoopStamps()[1])
		time++
		for _, child := range b.OutEdges() {
			if p.Block(child).Traversed() != block.DfsLNum {
				visit(child)
			}
		}
		b.SetLoopStamps(b.LoopStamps()[0], time)
		time++
		b.SetOrd(len(rpo))
		rpo = append(rpo, id)
	}
	visit(entry)
	return Order{RPO: rpo}
}

// ReverseLoopStamps runs §4.2(b): the same DFS as ForwardLoopStamps but
// visiting out-edge children in reverse index order and writing
// revLoopStamps, used to break ties when forward stamps alone cannot
// distinguish irreducible regions.
func ReverseLoopStamps(p *proc.Proc, entry block.ID) {
	time := 0
	var visit func(id block.ID)
	visit = func(id block.ID) {
		b := p.Block(id)
		b.SetTraversed(block.DfsRNum)
		b.SetRevLoopStamps(time, b.RevLoopStamps()[1])
		time++
		out := b.OutEdges()
		for i := len(out) - 1; i >= 0; i-- {
			if p.Block(out[i]).Traversed() != block.DfsRNum {
				visit(out[i])
			}
		}
		b.SetRevLoopStamps(b.RevLoopStamps()[0], time)
		time++
	}
	visit(entry)
}

// PostDomOrder is the result of a post-dominator DFS: the blocks in the
// order the reverse-graph traversal visited them (RevOrd is each block's
// index within it). Its last element is the root the cond package uses.
type PostDomOrder struct {
	Order []block.ID
}

// PostDominatorDFS runs §4.2(c): a DFS over the reverse graph (in-edges
// instead of out-edges) rooted at every block with no out-edges (there may
// be several return blocks), recording revOrd as each block's position in
// visit order. This produces the traversal from which post-dominators are
// computed (see the cond package's dominance.go).
func PostDominatorDFS(p *proc.Proc) PostDomOrder {
	var order []block.ID
	var visit func(id block.ID)
	visit = func(id block.ID) {
		b := p.Block(id)
		b.SetTraversed(block.DfsPdom)
		for _, pred := range b.InEdges() {
			if p.Block(pred).Traversed() != block.DfsPdom {
				visit(pred)
			}
		}
		b.SetRevOrd(len(order))
		order = append(order, id)
	}
	for _, b := range p.Blocks() {
		if len(b.OutEdges()) == 0 && b.Traversed() != block.DfsPdom {
			visit(b.ID())
		}
	}
	// Any block not reachable backward from an exit (e.g. an infinite loop
	// with no return) is still assigned an order so revOrd is always valid;
	// these are visited last, in arena order.
	for _, b := range p.Blocks() {
		if b.Traversed() != block.DfsPdom {
			visit(b.ID())
		}
	}
	return PostDomOrder{Order: order}
}

// CaseTaggingDFS runs §4.2(d): given a case head h and its follow f, marks
// every block dominated by h (excluding f and blocks reached only via a
// back-edge) with CaseHead = h. It mirrors BasicBlock::setCaseHead,
// including the nested-Nway shortcut (a nested case header's own follow is
// visited directly instead of walking its already-tagged member blocks
// again) and is invoked by the cond package once a case head's follow is
// known.
func CaseTaggingDFS(p *proc.Proc, head, follow block.ID) {
	var visit func(id block.ID)
	visit = func(id block.ID) {
		b := p.Block(id)
		b.SetTraversed(block.DfsCase)
		if id != head {
			s := b.Structure()
			s.CaseHead = head
			b.SetStructure(s)
		}
		if b.Kind() == block.KindNway && id != head {
			condFollow := b.Structure().CondFollow
			if condFollow != block.NoID && p.Block(condFollow).Traversed() != block.DfsCase && condFollow != follow {
				visit(condFollow)
			}
			return
		}
		for _, child := range b.OutEdges() {
			if HasBackEdgeTo(p, id, child) {
				continue
			}
			if p.Block(child).Traversed() == block.DfsCase {
				continue
			}
			if child == follow {
				continue
			}
			visit(child)
		}
	}
	visit(head)
}

// IsAncestorOf reports whether a is a forward ancestor of b, using whichever
// of the forward or reverse loop-stamp intervals nests properly (§4.2's
// ancestor query — the reverse stamps break ties the forward stamps alone
// cannot, in irreducible regions).
func IsAncestorOf(p *proc.Proc, a, b block.ID) bool {
	ab, bb := p.Block(a), p.Block(b)
	as, bs := ab.LoopStamps(), bb.LoopStamps()
	if as[0] < bs[0] && bs[1] < as[1] {
		return true
	}
	ars, brs := ab.RevLoopStamps(), bb.RevLoopStamps()
	return ars[0] < brs[0] && brs[1] < ars[1]
}

// HasBackEdgeTo reports whether the edge a -> b is a back-edge: either a
// loop of one block onto itself, or b is a forward ancestor of a (§4.2).
func HasBackEdgeTo(p *proc.Proc, a, b block.ID) bool {
	return a == b || IsAncestorOf(p, b, a)
}

// Run executes the forward loop-stamp DFS, reverse loop-stamp DFS, and
// post-dominator DFS in order, resetting traversal state before each so
// later passes (interval, cond) can rely on fresh, comparable stamps. Case
// tagging (§4.2d) is not run here: it needs to know each case head's follow,
// which is only known after the cond package's post-dominance analysis.
func Run(p *proc.Proc, entry block.ID) (Order, PostDomOrder) {
	p.ResetTraversal()
	fwd := ForwardLoopStamps(p, entry)

	p.ResetTraversal()
	ReverseLoopStamps(p, entry)

	p.ResetTraversal()
	pdom := PostDominatorDFS(p)

	return fwd, pdom
}
