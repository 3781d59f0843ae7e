package interval

import (
	"testing"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/synth"
	"github.com/boomslang/structurer/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeClassifiesPreTestedLoop(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.For{
			Cond: testir.BinExpr{Op: testir.Lt, X: testir.Ref{Name: "i"}, Y: testir.Const(10)},
			Body: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "i"}, RHS: testir.Ref{Name: "i"}}},
		},
		synth.Return{},
	})
	rpo, _ := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	loops := Analyze(p, rpo.RPO, log)

	require.Len(t, loops, 1)
	entry := p.Block(p.Entry)
	head := entry.OutEdges()[0]
	assert.Equal(t, head, loops[0].Header)
	assert.Equal(t, block.PreTested, loops[0].Type)

	s := p.Block(head).Structure()
	assert.Equal(t, block.Loop, s.Kind)
	assert.Equal(t, block.PreTested, s.LType)
}

func TestAnalyzeSingleBlockSelfLoopHeaderIsOwnLatch(t *testing.T) {
	// A single Twoway block branching back to itself: header and latch
	// coincide, and since the header is Twoway with a follow edge, classify
	// resolves it via the PreTested branch (checked ahead of the latch
	// branch, and trivially true here since header == latch).
	p := synth.Build("f", []synth.Stmt{
		synth.For{
			Cond: testir.Const(1),
			Body: nil,
		},
		synth.Return{},
	})
	rpo, _ := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	loops := Analyze(p, rpo.RPO, log)

	require.Len(t, loops, 1)
	assert.Equal(t, loops[0].Header, loops[0].Latch)
	assert.Equal(t, block.PreTested, loops[0].Type)
}

func TestAnalyzeFindsNoLoopInStraightLineCode(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)},
		synth.Return{},
	})
	rpo, _ := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	loops := Analyze(p, rpo.RPO, log)

	assert.Empty(t, loops)
}

func TestAnalyzeTagsLoopHeadOnMembers(t *testing.T) {
	p := synth.Build("f", []synth.Stmt{
		synth.For{
			Cond: testir.BinExpr{Op: testir.Lt, X: testir.Ref{Name: "i"}, Y: testir.Const(10)},
			Body: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "i"}, RHS: testir.Ref{Name: "i"}}},
		},
		synth.Return{},
	})
	rpo, _ := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	loops := Analyze(p, rpo.RPO, log)
	require.Len(t, loops, 1)

	entry := p.Block(p.Entry)
	head := p.Block(entry.OutEdges()[0])
	body := p.Block(head.OutEdges()[block.BThen])

	assert.Equal(t, head.ID(), body.Structure().LoopHead)
	assert.Equal(t, head.ID(), head.Structure().LoopHead)
	assert.Equal(t, block.NoID, entry.Structure().LoopHead)
}
