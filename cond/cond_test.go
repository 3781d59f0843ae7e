package cond

import (
	"testing"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/interval"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/synth"
	"github.com/boomslang/structurer/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeClassifiesIfThenElse(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.If{
			Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
			Then: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
			Else: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(2)}},
		},
		synth.Return{Value: testir.Ref{Name: "x"}},
	})

	rpo, pdom := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	interval.Analyze(p, rpo.RPO, log)
	Analyze(p, pdom.Order, log)

	entry := p.Block(p.Entry)
	head := p.Block(entry.OutEdges()[0])
	s := head.Structure()

	require.Equal(t, block.Cond, s.Kind)
	assert.Equal(t, block.IfThenElse, s.CType)
	assert.NotEqual(t, block.NoID, s.CondFollow)
	assert.Equal(t, block.Structured, s.UsType)
}

func TestAnalyzeClassifiesIfThenNoElse(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.If{
			Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
			Then: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
		},
		synth.Return{},
	})

	rpo, pdom := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	interval.Analyze(p, rpo.RPO, log)
	Analyze(p, pdom.Order, log)

	entry := p.Block(p.Entry)
	head := p.Block(entry.OutEdges()[0])
	s := head.Structure()

	require.Equal(t, block.Cond, s.Kind)
	assert.Equal(t, block.IfThen, s.CType)
}

func TestAnalyzeTagsCaseRegion(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.Switch{
			Var:   testir.Ref{Name: "v"},
			Lower: 0,
			Form:  "table",
			Cases: [][]synth.Stmt{
				{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(0)}},
				{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
			},
		},
		synth.Return{Value: testir.Ref{Name: "x"}},
	})

	rpo, pdom := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	interval.Analyze(p, rpo.RPO, log)
	Analyze(p, pdom.Order, log)

	entry := p.Block(p.Entry)
	head := p.Block(entry.OutEdges()[0])
	s := head.Structure()
	require.Equal(t, block.Case, s.CType)

	for _, succ := range head.OutEdges() {
		cs := p.Block(succ).Structure()
		assert.Equal(t, head.ID(), cs.CaseHead)
	}
}

func TestImmPDomRootIsLastPostOrderBlock(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)},
		synth.Return{},
	})
	_, pdom := traversal.Run(p, p.Entry)
	doms, root := ImmPDom(p, pdom.Order)

	assert.Equal(t, pdom.Order[len(pdom.Order)-1], root)
	assert.Equal(t, root, doms[root])
}
