package emit

import (
	"strings"
	"testing"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/cond"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/interval"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/synth"
	"github.com/boomslang/structurer/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFullPipeline(t *testing.T, buildProc func() *proc.Proc) *PlainText {
	p := buildProc()
	rpo, pdom := traversal.Run(p, p.Entry)
	log := &diag.Log{}
	interval.Analyze(p, rpo.RPO, log)
	cond.Analyze(p, pdom.Order, log)
	p.ResetTraversal()

	hll := NewPlainText("  ")
	Generate(p, hll, log, p.Entry, 0, block.NoID, nil, nil)
	return hll
}

func TestGenerateIfThenElse(t *testing.T) {
	hll := runFullPipeline(t, func() *proc.Proc {
		return synth.Build("f", []synth.Stmt{
			synth.If{
				Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
				Then: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
				Else: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(2)}},
			},
			synth.Return{Value: testir.Ref{Name: "x"}},
		})
	})

	text := hll.String()
	assert.Contains(t, text, "if (a > 0) {")
	assert.Contains(t, text, "} else {")
	assert.Contains(t, text, "x = 1")
	assert.Contains(t, text, "x = 2")
	assert.Contains(t, text, "return x;")
	assertBracketsBalanced(t, text)
}

func TestGeneratePreTestedLoop(t *testing.T) {
	hll := runFullPipeline(t, func() *proc.Proc {
		return synth.Build("f", []synth.Stmt{
			synth.For{
				Cond: testir.BinExpr{Op: testir.Lt, X: testir.Ref{Name: "i"}, Y: testir.Const(10)},
				Body: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "i"}, RHS: testir.Ref{Name: "i"}}},
			},
			synth.Return{},
		})
	})

	text := hll.String()
	assert.Contains(t, text, "while (i < 10) {")
	assert.Contains(t, text, "return;")
	assertBracketsBalanced(t, text)
}

func TestGenerateSwitch(t *testing.T) {
	hll := runFullPipeline(t, func() *proc.Proc {
		return synth.Build("f", []synth.Stmt{
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
	})

	text := hll.String()
	assert.Contains(t, text, "switch (v) {")
	assert.Contains(t, text, "case 0:")
	assert.Contains(t, text, "case 1:")
	assertBracketsBalanced(t, text)
}

// assertBracketsBalanced is the bracket-balance check named in Testable
// Property 5: every brace-opening construct call must be matched by its
// closing counterpart.
func assertBracketsBalanced(t *testing.T, text string) {
	depth := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, "{") {
			depth++
		}
		if trimmed == "}" || strings.HasPrefix(trimmed, "} ") {
			depth--
		}
		require.GreaterOrEqual(t, depth, 0, "unbalanced closing brace in:\n%s", text)
	}
	require.Equal(t, 0, depth, "unbalanced brackets in:\n%s", text)
}
