package cond

import (
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/proc"
)

// immPDom computes the immediate post-dominator of every block, via the
// standard iterative dominance algorithm (Cooper/Harvey/Kennedy) run over
// the post-dominator DFS order (traversal.PostDominatorDFS's revOrd),
// exactly as the reverse-graph analogue of forward dominance. postOrder
// lists blocks in revOrd order already (index i holds the block whose
// RevOrd() == i).
func immPDom(p *proc.Proc, postOrder []block.ID) map[block.ID]block.ID {
	idom := make(map[block.ID]block.ID, len(postOrder))
	// The last-visited block in the post-dominator DFS is a pseudo-root:
	// it postdominates itself and nothing postdominates it further.
	root := postOrder[len(postOrder)-1]
	idom[root] = root

	changed := true
	for changed {
		changed = false
		for i := len(postOrder) - 2; i >= 0; i-- {
			b := postOrder[i]
			var newIdom block.ID = block.NoID
			for _, succ := range p.Block(b).OutEdges() {
				if _, ok := idom[succ]; !ok {
					continue
				}
				if newIdom == block.NoID {
					newIdom = succ
					continue
				}
				newIdom = intersect(p, idom, newIdom, succ)
			}
			if newIdom == block.NoID {
				continue
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(p *proc.Proc, idom map[block.ID]block.ID, a, b block.ID) block.ID {
	for a != b {
		for p.Block(a).RevOrd() < p.Block(b).RevOrd() {
			a = idom[a]
		}
		for p.Block(b).RevOrd() < p.Block(a).RevOrd() {
			b = idom[b]
		}
	}
	return a
}

// ImmPDom is the exported entry point: computes and returns the immediate
// post-dominator of every block, plus the pseudo-root used as the
// traversal's sole exit (the root has no meaningful post-dominator of its
// own; callers should not treat root's self-mapping as a real IfThen/Case
// follow).
func ImmPDom(p *proc.Proc, postOrder []block.ID) (doms map[block.ID]block.ID, root block.ID) {
	doms = immPDom(p, postOrder)
	return doms, postOrder[len(postOrder)-1]
}
