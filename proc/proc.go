// Package proc owns a procedure's block arena: allocation, lookup, and
// symmetric edge maintenance. The pipeline that drives the structuring
// components over a Proc lives in the structure package.
package proc

import (
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/pkg/errors"
)

// Proc owns the block arena for one procedure: every Block reachable from
// Entry, indexed by block.ID. A Proc is the sole owner of its blocks
// (Invariant 3) — deleting a block from the arena destroys its instruction
// lists.
type Proc struct {
	Name    string
	Entry   block.ID
	blocks  []*block.Block
}

// New creates an empty procedure with the given name.
func New(name string) *Proc {
	return &Proc{Name: name, Entry: block.NoID}
}

// NewBlock allocates a block of the given kind in this procedure's arena
// and returns its stable ID.
func (p *Proc) NewBlock(kind block.Kind) block.ID {
	b := block.New(kind)
	id := block.ID(len(p.blocks))
	b.SetID(id)
	p.blocks = append(p.blocks, b)
	return id
}

// Block resolves an ID to its Block. Panics on an out-of-range ID, which
// can only happen from a programmer error (a stale ID from a different
// Proc, or a corrupt serialize.LinkTable) rather than a property of valid
// input.
func (p *Proc) Block(id block.ID) *block.Block {
	if id < 0 || int(id) >= len(p.blocks) {
		panic(diag.Bug{Message: "proc: block ID out of range"})
	}
	return p.blocks[id]
}

// Blocks returns every block in the arena, in allocation order (not
// necessarily a meaningful traversal order — use traversal.Run's RPO list
// for that).
func (p *Proc) Blocks() []*block.Block { return p.blocks }

// Len returns the number of blocks in the arena.
func (p *Proc) Len() int { return len(p.blocks) }

// Connect adds a directed edge from -> to, updating both endpoints so
// Invariant 1 (b in a.outEdges iff a in b.inEdges) holds.
func (p *Proc) Connect(from, to block.ID) {
	p.Block(from).AddOutEdge(to)
	p.Block(to).AddInEdge(from)
}

// DeleteEdge removes the edge from -> to in both directions.
func (p *Proc) DeleteEdge(from, to block.ID) error {
	fb, tb := p.Block(from), p.Block(to)
	found := false
	for _, id := range fb.OutEdges() {
		if id == to {
			found = true
			break
		}
	}
	if !found {
		return errors.Errorf("proc: no edge %d -> %d to delete", from, to)
	}
	fb.DeleteOutEdge(to)
	tb.DeleteInEdge(from)
	return nil
}

// ResetTraversal sets every block's traversal state to Untraversed, run at
// the start of each structuring pass so that pass can tell "visited in a
// prior pass" from "visited in this pass" (§4.2's per-pass reset rule).
func (p *Proc) ResetTraversal() {
	for _, b := range p.blocks {
		b.SetTraversed(block.Untraversed)
	}
}
