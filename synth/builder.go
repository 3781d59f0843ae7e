// Package synth builds proc.Proc control-flow graphs from a small
// block-granularity statement language (If/For/Switch/Goto/Label/Return/
// Call/Assign), the way extras/cfg/cfg.go builds a CFG from a list of
// ast.Stmt — generalized one level down, from source statements to
// block-sized units, since the structurer's input is already
// block-granular (§1 puts the instruction decoder out of scope). It exists
// to give the test suites a way to construct a CFG without hand-wiring
// every block.ID and edge.
package synth

import (
	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/ir"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/proc"
)

// Stmt is one node of the builder's small statement language. A Builder
// walks a []Stmt much like cfg.MakeCFG walks a []ast.Stmt, creating blocks
// and wiring edges as it goes.
type Stmt interface {
	build(b *Builder, prev []block.ID) []block.ID
}

// Builder accumulates a proc.Proc while walking a Stmt list, mirroring the
// cfg package's builder: open predecessor edges are threaded through as
// each statement is visited rather than fixed up afterward.
type Builder struct {
	Proc *proc.Proc

	// gotoTargets maps a label name to the block it resolves to, filled in
	// as Label statements are built; Goto statements needing forward
	// references are queued in pendingGotos until the label is seen.
	gotoTargets  map[string]block.ID
	pendingGotos []pendingGoto
}

type pendingGoto struct {
	from  block.ID
	label string
}

// New creates a Builder for a fresh, empty procedure named name.
func New(name string) *Builder {
	return &Builder{
		Proc:        proc.New(name),
		gotoTargets: make(map[string]block.ID),
	}
}

// Build constructs the procedure's CFG from body and sets Proc.Entry,
// returning the finished Proc. It is the synth-package analogue of
// cfg.MakeCFG: it assumes the given statements already flow into one
// another top to bottom, connecting each open predecessor set to the next
// statement's entry block.
func Build(name string, body []Stmt) *proc.Proc {
	bld := New(name)
	entry := bld.newBasic(nil)
	bld.Proc.Entry = entry

	open := []block.ID{entry}
	for _, s := range body {
		open = s.build(bld, open)
	}

	for _, g := range bld.pendingGotos {
		target, ok := bld.gotoTargets[g.label]
		if !ok {
			panic("synth: goto to undefined label " + g.label)
		}
		bld.Proc.Connect(g.from, target)
	}

	return bld.Proc
}

// newBasic allocates a fresh Oneway block with no instructions (Assign, If
// and For set its body afterwards; entry, Label and Goto blocks stay empty)
// and connects every block in preds to it.
func (b *Builder) newBasic(preds []block.ID) block.ID {
	id := b.Proc.NewBlock(block.KindOneway)
	for _, p := range preds {
		b.Proc.Connect(p, id)
	}
	return id
}

func setBody(p *proc.Proc, id block.ID, stmts ...ir.Stmt) {
	_ = p.Block(id).SetInstructions([]ir.StmtList{{Addr: ir.Addr(uint64(id) + 1), Stmts: stmts}})
}

// Assign emits "lhs = rhs" as a new block of its own, connected from the
// open predecessors (so each synth.Stmt starts on its own block, keeping
// the generated CFG simple and every block's last statement easy to
// classify).
type Assign struct {
	LHS, RHS ir.Expr
}

func (a Assign) build(bld *Builder, prev []block.ID) []block.ID {
	id := bld.newBasic(prev)
	setBody(bld.Proc, id, &testir.AssignStmt{LHS: a.LHS, RHS: a.RHS})
	return []block.ID{id}
}

// Call appends a call statement, producing a Call-kind block (§3.1: a call
// is always its own block, regardless of whether the callee returns).
type Call struct {
	Dest        ir.Addr
	DestUnknown bool
	Args        []ir.Expr
	Result      ir.Expr
}

func (c Call) build(bld *Builder, prev []block.ID) []block.ID {
	id := bld.Proc.NewBlock(block.KindCall)
	for _, p := range prev {
		bld.Proc.Connect(p, id)
	}
	setBody(bld.Proc, id, &testir.CallStmt{Dest: c.Dest, DestUnknown: c.DestUnknown, Args: c.Args, Result: c.Result})
	return []block.ID{id}
}

// Return ends the procedure's current path with a KindReturn block.
type Return struct {
	Value ir.Expr
}

func (r Return) build(bld *Builder, prev []block.ID) []block.ID {
	id := bld.Proc.NewBlock(block.KindReturn)
	for _, p := range prev {
		bld.Proc.Connect(p, id)
	}
	setBody(bld.Proc, id, &testir.ReturnStmt{Value: r.Value})
	return nil
}

// If builds a Twoway block branching on Cond: the Then arm is BThen, the
// Else arm (if any) is BElse. The merge point after both arms becomes the
// returned open predecessor set, the way cfg's buildIf threads control
// back together after an if/else.
type If struct {
	Cond       ir.Expr
	BK         ir.BranchKind
	Then, Else []Stmt
}

func (f If) build(bld *Builder, prev []block.ID) []block.ID {
	head := bld.newBasic(prev)
	bld.Proc.Block(head).UpdateKind(block.KindTwoway)
	setBody(bld.Proc, head, &testir.BranchStmt{Cond: f.Cond, BK: f.BK})

	thenOpen := buildSeq(bld, []block.ID{head}, f.Then)
	var elseOpen []block.ID
	if len(f.Else) > 0 {
		elseOpen = buildSeq(bld, []block.ID{head}, f.Else)
	} else {
		elseOpen = []block.ID{head}
	}

	// The head's two out-edges must land in BThen/BElse order; buildSeq
	// appends edges in the order Connect is called, so as long as Then was
	// wired before Else (it was, above) the index convention already holds.
	return append(thenOpen, elseOpen...)
}

// For builds a pre-tested loop: a Twoway header branching to the body or
// out to whatever follows, with the body looping back to the header.
type For struct {
	Cond ir.Expr
	BK   ir.BranchKind
	Body []Stmt
}

func (fr For) build(bld *Builder, prev []block.ID) []block.ID {
	head := bld.newBasic(prev)
	bld.Proc.Block(head).UpdateKind(block.KindTwoway)
	setBody(bld.Proc, head, &testir.BranchStmt{Cond: fr.Cond, BK: fr.BK})

	bodyOpen := buildSeq(bld, []block.ID{head}, fr.Body)
	for _, p := range bodyOpen {
		bld.Proc.Connect(p, head)
	}

	return []block.ID{head}
}

// Switch builds an Nway block with one out-edge per case, in Cases order.
type Switch struct {
	Var   ir.Expr
	Lower int
	Form  string
	Cases [][]Stmt
}

func (sw Switch) build(bld *Builder, prev []block.ID) []block.ID {
	head := bld.Proc.NewBlock(block.KindNway)
	for _, p := range prev {
		bld.Proc.Connect(p, head)
	}
	setBody(bld.Proc, head, &testir.CaseStmt{Info: ir.SwitchInfo{
		SwitchVar: sw.Var,
		Lower:     sw.Lower,
		Upper:     sw.Lower + len(sw.Cases) - 1,
		Form:      sw.Form,
	}})

	var open []block.ID
	for _, c := range sw.Cases {
		open = append(open, buildSeq(bld, []block.ID{head}, c)...)
	}
	return open
}

// Label marks the following point in the statement stream as a goto
// target by emitting an empty Oneway block that gotos resolve to and the
// next statement flows from.
type Label struct {
	Name string
}

func (l Label) build(bld *Builder, prev []block.ID) []block.ID {
	id := bld.newBasic(prev)
	bld.gotoTargets[l.Name] = id
	return []block.ID{id}
}

// Goto ends the current path with an unconditional jump to a label defined
// elsewhere in the same Build call (forward or backward).
type Goto struct {
	Label string
}

func (g Goto) build(bld *Builder, prev []block.ID) []block.ID {
	id := bld.newBasic(prev)
	bld.Proc.Block(id).UpdateKind(block.KindOneway)
	if target, ok := bld.gotoTargets[g.Label]; ok {
		bld.Proc.Connect(id, target)
	} else {
		bld.pendingGotos = append(bld.pendingGotos, pendingGoto{from: id, label: g.Label})
	}
	return nil
}

// buildSeq threads a statement list through the builder starting from the
// given open predecessor set, returning the new open set after the last
// statement.
func buildSeq(bld *Builder, open []block.ID, stmts []Stmt) []block.ID {
	for _, s := range stmts {
		open = s.build(bld, open)
		if open == nil {
			return nil
		}
	}
	return open
}
