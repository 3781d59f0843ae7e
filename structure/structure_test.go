package structure

import (
	"testing"

	"github.com/boomslang/structurer/emit"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIfProc(name string) *proc.Proc {
	return synth.Build(name, []synth.Stmt{
		synth.If{
			Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
			Then: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
			Else: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(2)}},
		},
		synth.Return{Value: testir.Ref{Name: "x"}},
	})
}

func TestRunProducesStructuredOutput(t *testing.T) {
	p := buildIfProc("f")
	hll := emit.NewPlainText("  ")

	log, err := Run(p, hll)
	require.NoError(t, err)
	require.NotNil(t, log)

	text := hll.String()
	assert.Contains(t, text, "if (a > 0) {")
	assert.Contains(t, text, "return x;")
}

func TestRunRejectsEmptyEntry(t *testing.T) {
	p := proc.New("empty")
	hll := emit.NewPlainText("  ")

	_, err := Run(p, hll)
	assert.Equal(t, errEmptyEntry, err)
}

func TestStructureAllRunsEveryProcedureConcurrently(t *testing.T) {
	pg := NewProgram("prog")
	for _, name := range []string{"a", "b", "c"} {
		pg.AddProc(buildIfProc(name))
	}

	results := pg.StructureAll(2, func() emit.HLLCode {
		return emit.NewPlainText("  ")
	})

	require.Len(t, results, 3)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, pg.Procs[i].Name, r.Proc.Name)
		pt, ok := r.HLL.(*emit.PlainText)
		require.True(t, ok)
		assert.Contains(t, pt.String(), "return x;")
	}
}

func TestStructureAllUnboundedParallelism(t *testing.T) {
	pg := NewProgram("prog")
	for _, name := range []string{"a", "b"} {
		pg.AddProc(buildIfProc(name))
	}

	results := pg.StructureAll(0, func() emit.HLLCode {
		return emit.NewPlainText("  ")
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}
