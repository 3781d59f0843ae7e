package proc

import (
	"testing"

	"github.com/boomslang/structurer/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockAssignsStableSequentialIDs(t *testing.T) {
	p := New("f")
	a := p.NewBlock(block.KindOneway)
	b := p.NewBlock(block.KindReturn)
	assert.Equal(t, block.ID(0), a)
	assert.Equal(t, block.ID(1), b)
	assert.Equal(t, 2, p.Len())
}

func TestConnectIsSymmetric(t *testing.T) {
	p := New("f")
	a := p.NewBlock(block.KindOneway)
	b := p.NewBlock(block.KindReturn)
	p.Connect(a, b)

	assert.Equal(t, []block.ID{b}, p.Block(a).OutEdges())
	assert.Equal(t, []block.ID{a}, p.Block(b).InEdges())
}

func TestDeleteEdgeRemovesBothDirections(t *testing.T) {
	p := New("f")
	a := p.NewBlock(block.KindOneway)
	b := p.NewBlock(block.KindReturn)
	p.Connect(a, b)

	require.NoError(t, p.DeleteEdge(a, b))
	assert.Empty(t, p.Block(a).OutEdges())
	assert.Empty(t, p.Block(b).InEdges())
}

func TestDeleteEdgeErrorsWhenAbsent(t *testing.T) {
	p := New("f")
	a := p.NewBlock(block.KindOneway)
	b := p.NewBlock(block.KindReturn)
	assert.Error(t, p.DeleteEdge(a, b))
}

func TestBlockPanicsOnOutOfRangeID(t *testing.T) {
	p := New("f")
	p.NewBlock(block.KindOneway)
	assert.Panics(t, func() { p.Block(block.ID(5)) })
}

func TestResetTraversalClearsEveryBlock(t *testing.T) {
	p := New("f")
	a := p.NewBlock(block.KindOneway)
	p.Block(a).SetTraversed(block.DfsCodegen)

	p.ResetTraversal()
	assert.Equal(t, block.Untraversed, p.Block(a).Traversed())
}
