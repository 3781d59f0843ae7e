package synth

import (
	"testing"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIfThenElseMerges(t *testing.T) {
	p := Build("f", []Stmt{
		If{
			Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
			Then: []Stmt{Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
			Else: []Stmt{Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(2)}},
		},
		Return{Value: testir.Ref{Name: "x"}},
	})

	require.Equal(t, block.ID(0), p.Entry)
	entry := p.Block(p.Entry)
	require.Len(t, entry.OutEdges(), 1)
	head := p.Block(entry.OutEdges()[0])
	assert.Equal(t, block.KindTwoway, head.Kind())
	require.Len(t, head.OutEdges(), 2)

	thenBlock := p.Block(head.OutEdges()[block.BThen])
	elseBlock := p.Block(head.OutEdges()[block.BElse])

	// both arms converge on the same merge block, which is the Return block
	require.Len(t, thenBlock.OutEdges(), 1)
	require.Len(t, elseBlock.OutEdges(), 1)
	assert.Equal(t, thenBlock.OutEdges()[0], elseBlock.OutEdges()[0])
	assert.Equal(t, block.KindReturn, p.Block(thenBlock.OutEdges()[0]).Kind())
}

func TestBuildForLoopsBackToHeader(t *testing.T) {
	p := Build("f", []Stmt{
		For{
			Cond: testir.BinExpr{Op: testir.Lt, X: testir.Ref{Name: "i"}, Y: testir.Const(10)},
			Body: []Stmt{Assign{LHS: testir.Ref{Name: "i"}, RHS: testir.Ref{Name: "i"}}},
		},
		Return{},
	})

	entry := p.Block(p.Entry)
	require.Len(t, entry.OutEdges(), 1)
	head := p.Block(entry.OutEdges()[0])
	assert.Equal(t, block.KindTwoway, head.Kind())

	body := p.Block(head.OutEdges()[block.BThen])
	assert.Contains(t, body.OutEdges(), head.ID())
	assert.Contains(t, head.InEdges(), body.ID())
}

func TestBuildGotoResolvesForwardLabel(t *testing.T) {
	p := Build("f", []Stmt{
		Goto{Label: "end"},
		Assign{LHS: testir.Ref{Name: "unreachable"}, RHS: testir.Const(0)},
		Label{Name: "end"},
		Return{},
	})

	gotoBlock := p.Block(1)
	require.Len(t, gotoBlock.OutEdges(), 1)
	target := p.Block(gotoBlock.OutEdges()[0])
	assert.Equal(t, block.KindReturn, p.Block(target.OutEdges()[0]).Kind())
}

func TestBuildPanicsOnUndefinedGotoLabel(t *testing.T) {
	assert.Panics(t, func() {
		Build("f", []Stmt{Goto{Label: "nowhere"}})
	})
}

func TestBuildSwitchWiresOneEdgePerCase(t *testing.T) {
	p := Build("f", []Stmt{
		Switch{
			Var:   testir.Ref{Name: "v"},
			Lower: 0,
			Form:  "table",
			Cases: [][]Stmt{
				{Return{Value: testir.Const(0)}},
				{Return{Value: testir.Const(1)}},
				{Return{Value: testir.Const(2)}},
			},
		},
	})

	entry := p.Block(p.Entry)
	require.Len(t, entry.OutEdges(), 1)
	head := p.Block(entry.OutEdges()[0])
	assert.Equal(t, block.KindNway, head.Kind())
	assert.Len(t, head.OutEdges(), 3)
}
