// Package block implements the structuring core's per-block data model
// (§3.1 of the structuring spec): kind, instruction lists, edges, and the
// structuring/ordering/traversal labels every later pass writes. Blocks are
// arena-allocated inside a single procedure (see the proc package) and
// referred to by the small stable ID defined here rather than by pointer,
// per the "cyclic graph of owning references" design note: this keeps
// structuring references (loopHead, caseHead, condFollow, ...) as plain
// integers instead of a tangle of owning/non-owning C++ pointers.
package block

import (
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/ir"
	"github.com/pkg/errors"
)

// ID is a stable reference to a Block within the Arena that owns it. The
// sentinel NoID (-1) means "no block"; the zero value 0 is a valid ID.
type ID int32

// NoID is the sentinel "no block" reference, used for unset structuring
// labels (loopHead, condFollow, latchNode, ...) before a pass assigns them.
const NoID ID = -1

// Kind is the shape of a block's out-edges (§3.1).
type Kind int

const (
	KindInvalid Kind = iota
	KindOneway
	KindTwoway
	KindNway
	KindCall
	KindReturn
	KindFall
	KindComputedJump
	KindComputedCall
)

func (k Kind) String() string {
	switch k {
	case KindOneway:
		return "Oneway"
	case KindTwoway:
		return "Twoway"
	case KindNway:
		return "Nway"
	case KindCall:
		return "Call"
	case KindReturn:
		return "Return"
	case KindFall:
		return "Fall"
	case KindComputedJump:
		return "ComputedJump"
	case KindComputedCall:
		return "ComputedCall"
	default:
		return "Invalid"
	}
}

// out-edge indices for a Twoway block (§3.1).
const (
	BThen = 0
	BElse = 1
)

// TraversalState distinguishes which of the structuring passes last visited
// a block, so each pass can tell "visited already, in an earlier pass" from
// "visited already, in this pass" without overloading a single bool, per the
// "traversal state as enum" design note.
type TraversalState int

const (
	Untraversed TraversalState = iota
	DfsLNum                    // forward loop-stamp DFS (§4.2a)
	DfsRNum                    // reverse loop-stamp DFS (§4.2b)
	DfsPdom                    // post-dominator DFS (§4.2c)
	DfsCase                    // case-tagging DFS (§4.2d)
	DfsCodegen                 // structured emitter (§4.5)
)

// Block is a maximal straight-line run of intermediate statements ending in
// one control-transfer statement (or a fall-through), per §3.1.
type Block struct {
	id   ID
	kind Kind

	instructions []ir.StmtList

	inEdges  []ID
	outEdges []ID

	label int // 0 means "no label"; the emitter does not set it (its gotos and labels use ord)

	structure Structure

	// Ordering numbers (§3.1).
	loopStamps    [2]int
	revLoopStamps [2]int
	ord           int
	revOrd        int

	traversed TraversalState

	// hllLabel marks that some goto target this block, so the emitter must
	// attach a label to this block's own WriteBB output.
	hllLabel bool

	// indentLevel is the nesting depth this block was last emitted at,
	// recorded so the PreTested loop's re-emission of the header body uses
	// the correct level and so a latch at the wrong depth can detect it.
	indentLevel int

	returnExpr ir.Expr
}

// New creates an unattached block of the given kind with NoID; the owning
// Arena assigns its ID when it is added (see proc.Proc.NewBlock).
func New(kind Kind) *Block {
	return &Block{
		id:            NoID,
		kind:          kind,
		structure:     NewStructure(),
		ord:           -1,
		revOrd:        -1,
		loopStamps:    [2]int{-1, -1},
		revLoopStamps: [2]int{-1, -1},
	}
}

// ID returns this block's stable arena reference.
func (b *Block) ID() ID { return b.id }

// SetID is called exactly once by the owning Arena when the block is added.
func (b *Block) SetID(id ID) { b.id = id }

// Kind returns the block's control-transfer shape.
func (b *Block) Kind() Kind { return b.kind }

// UpdateKind changes the block's kind and out-edge-count expectation, used
// when a computed jump is later recognised as a switch idiom (mirrors
// BasicBlock::updateType).
func (b *Block) UpdateKind(k Kind) { b.kind = k }

// Label returns the label number assigned with SetLabel, or 0 if none.
func (b *Block) Label() int { return b.label }

// SetLabel assigns a label number. The emit package does not call it: the
// gotos and labels it writes are numbered by Ord.
func (b *Block) SetLabel(n int) { b.label = n }

// HLLLabel reports whether the emitter must attach a label to this block's
// own output (some goto elsewhere in the program targets it).
func (b *Block) HLLLabel() bool { return b.hllLabel }

// SetHLLLabel marks that a label is needed at this block's own WriteBB call.
func (b *Block) SetHLLLabel(v bool) { b.hllLabel = v }

// IndentLevel returns the nesting depth this block was emitted at.
func (b *Block) IndentLevel() int { return b.indentLevel }

// SetIndentLevel records the nesting depth this block was emitted at.
func (b *Block) SetIndentLevel(n int) { b.indentLevel = n }

// Traversed returns the traversal state last set on this block.
func (b *Block) Traversed() TraversalState { return b.traversed }

// SetTraversed sets the traversal state.
func (b *Block) SetTraversed(s TraversalState) { b.traversed = s }

// Structure returns the block's structuring classification.
func (b *Block) Structure() Structure { return b.structure }

// SetStructure assigns the block's structuring classification.
func (b *Block) SetStructure(s Structure) { b.structure = s }

// LoopStamps returns the forward DFS entry/exit timestamps (§4.2a).
func (b *Block) LoopStamps() [2]int { return b.loopStamps }

// SetLoopStamps assigns the forward DFS entry/exit timestamps.
func (b *Block) SetLoopStamps(entry, exit int) { b.loopStamps = [2]int{entry, exit} }

// RevLoopStamps returns the reverse DFS entry/exit timestamps (§4.2b).
func (b *Block) RevLoopStamps() [2]int { return b.revLoopStamps }

// SetRevLoopStamps assigns the reverse DFS entry/exit timestamps.
func (b *Block) SetRevLoopStamps(entry, exit int) { b.revLoopStamps = [2]int{entry, exit} }

// Ord returns this block's index in reverse-post-order.
func (b *Block) Ord() int { return b.ord }

// SetOrd assigns this block's reverse-post-order index.
func (b *Block) SetOrd(n int) { b.ord = n }

// RevOrd returns this block's index in post-dominator DFS order.
func (b *Block) RevOrd() int { return b.revOrd }

// SetRevOrd assigns this block's post-dominator DFS order index.
func (b *Block) SetRevOrd(n int) { b.revOrd = n }

// ReturnExpr returns the value returned by a KindReturn block, or nil.
func (b *Block) ReturnExpr() ir.Expr { return b.returnExpr }

// SetReturnExpr sets the value returned by a KindReturn block.
func (b *Block) SetReturnExpr(e ir.Expr) { b.returnExpr = e }

// Instructions returns the block's ordered RTL list. Callers must not
// mutate the returned slice; use SetInstructions/PrependStmt.
func (b *Block) Instructions() []ir.StmtList { return b.instructions }

// SetInstructions assigns the block's RTL list, taking ownership of it and
// discarding any prior contents (spec §9's resolution of "should we delete
// old ones here?" — setRTLs takes an owning handle). If the last statement
// of the last RTL is a call, it is not back-linked here: a Stmt is opaque
// data owned by the decoder, and the decoder is responsible for setting its
// own back-reference to this block's ID if it needs one.
//
// An empty list is only accepted for an Invalid block (one with no
// reachable code, e.g. a block pruned after a recognised switch idiom);
// otherwise it is a structural assertion violation (§9's guard on the
// original's unchecked dereference of an empty RTL list).
func (b *Block) SetInstructions(rtls []ir.StmtList) error {
	if len(rtls) == 0 && b.kind != KindInvalid {
		return errors.Errorf("block: SetInstructions called with empty RTL list on a %s block", b.kind)
	}
	b.instructions = rtls
	return nil
}

// PrependStmt prepends a synthesized assignment (typically a phi function)
// ahead of the block's existing instructions. If the first RTL already has
// address 0, the statement is appended to it; otherwise a new address-0 RTL
// is created in front, mirroring BasicBlock::prependStmt.
func (b *Block) PrependStmt(s ir.Stmt) {
	if len(b.instructions) > 0 && b.instructions[0].Addr == 0 {
		b.instructions[0].Stmts = append(b.instructions[0].Stmts, s)
		return
	}
	b.instructions = append([]ir.StmtList{{Addr: 0, Stmts: []ir.Stmt{s}}}, b.instructions...)
}

// LowAddr returns the smallest real address in the instruction sequence.
// If the first RTL's address is 0 and a later RTL's address is >= 0x10,
// the later address is returned instead: this compensates for orphan
// instructions lifted from delay slots into a synthetic address-0 RTL,
// mirroring BasicBlock::getLowAddr's 286-program workaround.
func (b *Block) LowAddr() (ir.Addr, error) {
	if len(b.instructions) == 0 {
		return 0, errors.New("block: LowAddr called on a block with no instructions")
	}
	a := b.instructions[0].Addr
	if a == 0 && len(b.instructions) > 1 {
		a2 := b.instructions[1].Addr
		if a2 < 0x10 {
			return 0, nil
		}
		return a2, nil
	}
	return a, nil
}

// HiAddr returns the address of the last RTL in the instruction sequence.
func (b *Block) HiAddr() (ir.Addr, error) {
	if len(b.instructions) == 0 {
		return 0, errors.New("block: HiAddr called on a block with no instructions")
	}
	return b.instructions[len(b.instructions)-1].Addr, nil
}

// lastStmt returns the final statement of the final RTL, or nil.
func (b *Block) lastStmt() ir.Stmt {
	if len(b.instructions) == 0 {
		return nil
	}
	return b.instructions[len(b.instructions)-1].Last()
}

// Cond returns the branch condition of this block's terminal statement.
// It is a structural assertion violation to call this on a block whose
// last statement is not a Branch.
func (b *Block) Cond() ir.Expr {
	s := b.lastStmt()
	diag.Assertf(s != nil && s.Kind() == ir.KindBranch, "block: Cond called on block %d with no trailing branch", b.id)
	return s.CondExpr()
}

// SetCond overwrites the branch condition of this block's terminal
// statement. Same precondition as Cond.
func (b *Block) SetCond(e ir.Expr) {
	s := b.lastStmt()
	diag.Assertf(s != nil && s.Kind() == ir.KindBranch, "block: SetCond called on block %d with no trailing branch", b.id)
	s.SetCondExpr(e)
}

// IsJmpZ reports whether the branch condition is an equality/inequality
// test and target is the edge taken when that condition holds, mirroring
// BasicBlock::isJmpZ.
func (b *Block) IsJmpZ(target ID) bool {
	s := b.lastStmt()
	if s == nil || s.Kind() != ir.KindBranch {
		return false
	}
	switch s.BranchKind() {
	case ir.JE:
		return target == b.outEdges[BThen]
	case ir.JNE:
		return target == b.outEdges[BElse]
	default:
		return false
	}
}

// CallTarget returns the fixed destination of a Call block's terminal call
// statement, or ok=false for an indirect call, a non-call block, or a call
// block with no instructions (spec §9's fix for getCallDest's silent -1).
func (b *Block) CallTarget() (addr ir.Addr, ok bool) {
	if b.kind != KindCall {
		return 0, false
	}
	s := b.lastStmt()
	if s == nil || s.Kind() != ir.KindCall {
		return 0, false
	}
	return s.CallTarget()
}

// InEdges returns the block's ordered predecessor list.
func (b *Block) InEdges() []ID { return b.inEdges }

// OutEdges returns the block's ordered successor list. For Twoway, index
// BThen is the "then" target and BElse is the "else" target; for Nway,
// out-edges are in case-label order.
func (b *Block) OutEdges() []ID { return b.outEdges }

// AddOutEdge appends a successor. It does not update the successor's
// in-edge list; callers needing symmetric edges should use Arena.Connect.
func (b *Block) AddOutEdge(to ID) { b.outEdges = append(b.outEdges, to) }

// AddInEdge appends a predecessor. See AddOutEdge's caveat.
func (b *Block) AddInEdge(from ID) { b.inEdges = append(b.inEdges, from) }

// SetOutEdge overwrites the i-th out-edge, growing the slice by one if i is
// exactly its current length (mirrors BasicBlock::setOutEdge's "cannot add
// an additional out-edge" note — this is for replacing a target, not adding
// one, except for the single initial append it explicitly allows).
func (b *Block) SetOutEdge(i int, to ID) {
	if i == len(b.outEdges) {
		b.outEdges = append(b.outEdges, to)
		return
	}
	b.outEdges[i] = to
}

// SetInEdge overwrites the i-th in-edge.
func (b *Block) SetInEdge(i int, from ID) { b.inEdges[i] = from }

func removeID(ids []ID, target ID) []ID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// DeleteOutEdge and DeleteInEdge are used by Proc.DeleteEdge to keep both
// directions of an edge consistent (Invariant 1).
func (b *Block) DeleteOutEdge(to ID) { b.outEdges = removeID(b.outEdges, to) }
func (b *Block) DeleteInEdge(from ID) { b.inEdges = removeID(b.inEdges, from) }
