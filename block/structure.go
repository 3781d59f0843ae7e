package block

// StructKind is the outer structure a block heads (§3.1's sType).
type StructKind int

const (
	Seq StructKind = iota
	Cond
	Loop
	LoopCond
)

func (k StructKind) String() string {
	switch k {
	case Cond:
		return "Cond"
	case Loop:
		return "Loop"
	case LoopCond:
		return "LoopCond"
	default:
		return "Seq"
	}
}

// LoopType classifies a loop header (§3.1's lType), valid when Kind is Loop
// or LoopCond.
type LoopType int

const (
	NoLoopType LoopType = iota
	PreTested
	PostTested
	Endless
)

func (t LoopType) String() string {
	switch t {
	case PreTested:
		return "PreTested"
	case PostTested:
		return "PostTested"
	case Endless:
		return "Endless"
	default:
		return "None"
	}
}

// CondType classifies a conditional header (§3.1's cType), valid when Kind
// is Cond or LoopCond.
type CondType int

const (
	NoCondType CondType = iota
	IfThen
	IfElse
	IfThenElse
	Case
)

func (t CondType) String() string {
	switch t {
	case IfThen:
		return "IfThen"
	case IfElse:
		return "IfElse"
	case IfThenElse:
		return "IfThenElse"
	case Case:
		return "Case"
	default:
		return "None"
	}
}

// UnstructType classifies structural regularity of a conditional header
// (§3.1's usType), valid for conditional heads.
type UnstructType int

const (
	Structured UnstructType = iota
	JumpInOutLoop
	JumpIntoCase
)

func (t UnstructType) String() string {
	switch t {
	case JumpInOutLoop:
		return "JumpInOutLoop"
	case JumpIntoCase:
		return "JumpIntoCase"
	default:
		return "Structured"
	}
}

// Structure is the tagged union of a block's structuring labels, per the
// "tagged unions for structuring state" design note: a single Kind selects
// which of the loop/cond fields are meaningful, so illegal combinations
// (e.g. a Seq block with a LoopType set) cannot be represented, unlike the
// four independently-settable fields of the original.
//
// ImmPDom, LoopHead, CaseHead, CondFollow, LoopFollow, and LatchNode are
// carried here regardless of Kind because multiple passes populate them at
// different times relative to when Kind itself is finalized (e.g. LoopHead
// is assigned to every block in a loop body, not just the header).
type Structure struct {
	Kind StructKind

	LType LoopType
	CType CondType
	UsType UnstructType

	LoopHead   ID
	CaseHead   ID
	CondFollow ID
	LoopFollow ID
	LatchNode  ID
	ImmPDom    ID
}

// NewStructure returns the zero/sentinel structuring state: Seq, with every
// block reference set to NoID.
func NewStructure() Structure {
	return Structure{
		Kind:       Seq,
		LoopHead:   NoID,
		CaseHead:   NoID,
		CondFollow: NoID,
		LoopFollow: NoID,
		LatchNode:  NoID,
		ImmPDom:    NoID,
	}
}
