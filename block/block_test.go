package block

import (
	"testing"

	"github.com/boomslang/structurer/ir"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInstructionsRejectsEmptyOnValidBlock(t *testing.T) {
	b := New(KindOneway)
	err := b.SetInstructions(nil)
	require.Error(t, err)

	invalid := New(KindInvalid)
	require.NoError(t, invalid.SetInstructions(nil))
}

func TestPrependStmtMergesIntoAddrZeroRTL(t *testing.T) {
	b := New(KindOneway)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0, Stmts: []ir.Stmt{&testir.AssignStmt{LHS: testir.Ref{Name: "a"}, RHS: testir.Const(1)}}},
	}))

	phi := &testir.PhiStmt{LHS: testir.Ref{Name: "b"}, Sources: []ir.Expr{testir.Const(2)}}
	b.PrependStmt(phi)

	require.Len(t, b.Instructions(), 1)
	assert.Same(t, phi, b.Instructions()[0].Stmts[0])
}

func TestPrependStmtInsertsNewRTLWhenNoAddrZero(t *testing.T) {
	b := New(KindOneway)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0x100, Stmts: []ir.Stmt{&testir.ReturnStmt{}}},
	}))

	phi := &testir.PhiStmt{LHS: testir.Ref{Name: "b"}}
	b.PrependStmt(phi)

	require.Len(t, b.Instructions(), 2)
	assert.Equal(t, ir.Addr(0), b.Instructions()[0].Addr)
}

func TestLowAddrKeepsAddrZeroBelowDelaySlotThreshold(t *testing.T) {
	b := New(KindOneway)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0, Stmts: []ir.Stmt{&testir.AssignStmt{LHS: testir.Ref{Name: "a"}, RHS: testir.Const(1)}}},
		{Addr: 0x4, Stmts: []ir.Stmt{&testir.ReturnStmt{}}},
	}))
	addr, err := b.LowAddr()
	require.NoError(t, err)
	assert.Equal(t, ir.Addr(0), addr)
}

func TestLowAddrUsesSecondRTLPastDelaySlotThreshold(t *testing.T) {
	b := New(KindOneway)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0, Stmts: []ir.Stmt{&testir.AssignStmt{LHS: testir.Ref{Name: "a"}, RHS: testir.Const(1)}}},
		{Addr: 0x40, Stmts: []ir.Stmt{&testir.ReturnStmt{}}},
	}))
	addr, err := b.LowAddr()
	require.NoError(t, err)
	assert.Equal(t, ir.Addr(0x40), addr)
}

func TestCondPanicsOnNonBranchBlock(t *testing.T) {
	b := New(KindReturn)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0, Stmts: []ir.Stmt{&testir.ReturnStmt{}}},
	}))
	assert.Panics(t, func() { b.Cond() })
}

func TestIsJmpZ(t *testing.T) {
	b := New(KindTwoway)
	b.SetID(0)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0, Stmts: []ir.Stmt{&testir.BranchStmt{Cond: testir.Const(1), BK: ir.JE}}},
	}))
	b.AddOutEdge(10)
	b.AddOutEdge(20)

	assert.True(t, b.IsJmpZ(10))
	assert.False(t, b.IsJmpZ(20))
}

func TestCallTargetIndirectIsNotOK(t *testing.T) {
	b := New(KindCall)
	require.NoError(t, b.SetInstructions([]ir.StmtList{
		{Addr: 0, Stmts: []ir.Stmt{&testir.CallStmt{DestUnknown: true}}},
	}))
	_, ok := b.CallTarget()
	assert.False(t, ok)
}

func TestDeleteOutInEdgeRemovesExactlyOneOccurrence(t *testing.T) {
	b := New(KindOneway)
	b.AddOutEdge(1)
	b.AddOutEdge(2)
	b.AddOutEdge(1)

	b.DeleteOutEdge(1)
	assert.Equal(t, []ID{2, 1}, b.OutEdges())
}
