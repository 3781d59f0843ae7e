package traversal

import (
	"testing"

	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/synth"
	"github.com/stretchr/testify/assert"
)

func TestRunAssignsRPOAndDetectsBackEdge(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.For{
			Cond: testir.BinExpr{Op: testir.Lt, X: testir.Ref{Name: "i"}, Y: testir.Const(10)},
			Body: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "i"}, RHS: testir.Ref{Name: "i"}}},
		},
		synth.Return{},
	})

	fwd, pdom := Run(p, p.Entry)

	assert.Len(t, fwd.RPO, p.Len())
	assert.Len(t, pdom.Order, p.Len())

	entry := p.Block(p.Entry)
	head := p.Block(entry.OutEdges()[0])
	body := p.Block(head.OutEdges()[0])

	assert.True(t, HasBackEdgeTo(p, body.ID(), head.ID()))
	assert.False(t, HasBackEdgeTo(p, head.ID(), body.ID()))
	assert.True(t, IsAncestorOf(p, head.ID(), body.ID()))
}

func TestHasBackEdgeToSelfLoop(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.For{
			Cond: testir.Const(1),
			Body: nil,
		},
		synth.Return{},
	})
	Run(p, p.Entry)

	entry := p.Block(p.Entry)
	head := entry.OutEdges()[0]
	assert.True(t, HasBackEdgeTo(p, head, head))
}

func TestPostDominatorDFSVisitsEveryBlock(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.If{
			Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
			Then: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
		},
		synth.Return{},
	})
	_, pdom := Run(p, p.Entry)

	seen := make(map[int]bool)
	for _, id := range pdom.Order {
		seen[int(id)] = true
	}
	assert.Len(t, seen, p.Len())
}
