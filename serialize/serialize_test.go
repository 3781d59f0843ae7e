package serialize

import (
	"bytes"
	"testing"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleProc(name string) *proc.Proc {
	return synth.Build(name, []synth.Stmt{
		synth.If{
			Cond: testir.BinExpr{Op: testir.Gt, X: testir.Ref{Name: "a"}, Y: testir.Const(0)},
			Then: []synth.Stmt{synth.Assign{LHS: testir.Ref{Name: "x"}, RHS: testir.Const(1)}},
		},
		synth.Return{Value: testir.Ref{Name: "x"}},
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := buildSampleProc("f")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p, testir.Codec))

	log := &diag.Log{}
	got, table, err := Decode(&buf, testir.Codec, log)
	require.NoError(t, err)
	Link(got, table)

	require.Equal(t, p.Len(), got.Len())
	for i := 0; i < p.Len(); i++ {
		id := block.ID(i)
		wantB, gotB := p.Block(id), got.Block(id)
		assert.Equal(t, wantB.Kind(), gotB.Kind())
		assert.Equal(t, wantB.OutEdges(), gotB.OutEdges())
		require.Len(t, gotB.Instructions(), len(wantB.Instructions()))
		for j, rtl := range wantB.Instructions() {
			assert.Equal(t, rtl.Addr, gotB.Instructions()[j].Addr)
			require.Len(t, gotB.Instructions()[j].Stmts, len(rtl.Stmts))
			for k, s := range rtl.Stmts {
				assert.Equal(t, s.String(), gotB.Instructions()[j].Stmts[k].String())
			}
		}
	}
	assert.Empty(t, log.Entries)
}

func TestDecodeLogsUnknownFieldTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, buildSampleProc("g"), testir.Codec))

	raw := buf.Bytes()
	// Splice an unrecognised field (tag 99, zero-length) just before the
	// first block's BB_END, simulating a newer writer's field this reader
	// doesn't know about.
	endTag := []byte{bbEnd, 0, 0, 0, 0}
	idxEnd := bytes.Index(raw, endTag)
	require.NotEqual(t, -1, idxEnd)
	patched := append([]byte{}, raw[:idxEnd]...)
	patched = append(patched, 99, 0, 0, 0, 0)
	patched = append(patched, raw[idxEnd:]...)

	log := &diag.Log{}
	_, _, err := Decode(bytes.NewReader(patched), testir.Codec, log)
	require.NoError(t, err)
	require.NotEmpty(t, log.Entries)
	assert.Contains(t, log.Entries[0].Message, "unknown field tag 99")
}

func TestEncodeDecodeProgramRoundTrip(t *testing.T) {
	a := buildSampleProc("a")
	b := buildSampleProc("b")

	var buf bytes.Buffer
	require.NoError(t, EncodeProgram(&buf, []*proc.Proc{a, b}, testir.Codec))

	log := &diag.Log{}
	procs, err := DecodeProgram(&buf, testir.Codec, log)
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, "a", procs[0].Name)
	assert.Equal(t, "b", procs[1].Name)
	assert.Equal(t, a.Entry, procs[0].Entry)
	assert.Equal(t, b.Entry, procs[1].Entry)
}
