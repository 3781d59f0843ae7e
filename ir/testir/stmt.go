package testir

import (
	"fmt"
	"strings"

	"github.com/boomslang/structurer/ir"
)

// AssignStmt is "lhs := rhs"; the ordinary straight-line statement.
type AssignStmt struct {
	LHS, RHS ir.Expr
}

func (a *AssignStmt) Kind() ir.Kind                  { return ir.KindAssign }
func (a *AssignStmt) CondExpr() ir.Expr              { return nil }
func (a *AssignStmt) SetCondExpr(ir.Expr)            {}
func (a *AssignStmt) BranchKind() ir.BranchKind      { return ir.BranchUnknown }
func (a *AssignStmt) SwitchInfo() *ir.SwitchInfo      { return nil }
func (a *AssignStmt) CallTarget() (ir.Addr, bool)    { return 0, false }
func (a *AssignStmt) ReturnExpr() ir.Expr            { return nil }
func (a *AssignStmt) Definitions() []ir.Expr         { return []ir.Expr{a.LHS} }
func (a *AssignStmt) Uses() []ir.Expr                { return []ir.Expr{a.RHS} }
func (a *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s", a.LHS.String(), a.RHS.String())
}

// BranchStmt is a conditional jump; the terminal statement of a Twoway block.
type BranchStmt struct {
	Cond ir.Expr
	BK   ir.BranchKind
}

func (b *BranchStmt) Kind() ir.Kind               { return ir.KindBranch }
func (b *BranchStmt) CondExpr() ir.Expr           { return b.Cond }
func (b *BranchStmt) SetCondExpr(e ir.Expr)       { b.Cond = e }
func (b *BranchStmt) BranchKind() ir.BranchKind   { return b.BK }
func (b *BranchStmt) SwitchInfo() *ir.SwitchInfo   { return nil }
func (b *BranchStmt) CallTarget() (ir.Addr, bool) { return 0, false }
func (b *BranchStmt) ReturnExpr() ir.Expr         { return nil }
func (b *BranchStmt) Definitions() []ir.Expr      { return nil }
func (b *BranchStmt) Uses() []ir.Expr             { return []ir.Expr{b.Cond} }
func (b *BranchStmt) String() string              { return "if " + b.Cond.String() }

// CallStmt is a procedure call; the terminal statement of a Call block.
// Dest is the statically-known target, or DestUnknown for an indirect call.
type CallStmt struct {
	Dest        ir.Addr
	DestUnknown bool
	Args        []ir.Expr
	Result      ir.Expr // may be nil for a call with no captured result
}

func (c *CallStmt) Kind() ir.Kind             { return ir.KindCall }
func (c *CallStmt) CondExpr() ir.Expr         { return nil }
func (c *CallStmt) SetCondExpr(ir.Expr)       {}
func (c *CallStmt) BranchKind() ir.BranchKind { return ir.BranchUnknown }
func (c *CallStmt) SwitchInfo() *ir.SwitchInfo { return nil }
func (c *CallStmt) CallTarget() (ir.Addr, bool) {
	if c.DestUnknown {
		return 0, false
	}
	return c.Dest, true
}
func (c *CallStmt) ReturnExpr() ir.Expr { return nil }
func (c *CallStmt) Definitions() []ir.Expr {
	if c.Result == nil {
		return nil
	}
	return []ir.Expr{c.Result}
}
func (c *CallStmt) Uses() []ir.Expr { return c.Args }
func (c *CallStmt) String() string {
	if c.DestUnknown {
		return "call <indirect>"
	}
	return fmt.Sprintf("call 0x%x", uint64(c.Dest))
}

// CaseStmt is an N-way dispatch; the terminal statement of an Nway block.
type CaseStmt struct {
	Info ir.SwitchInfo
}

func (c *CaseStmt) Kind() ir.Kind               { return ir.KindCase }
func (c *CaseStmt) CondExpr() ir.Expr           { return nil }
func (c *CaseStmt) SetCondExpr(ir.Expr)         {}
func (c *CaseStmt) BranchKind() ir.BranchKind   { return ir.BranchUnknown }
func (c *CaseStmt) SwitchInfo() *ir.SwitchInfo  { return &c.Info }
func (c *CaseStmt) CallTarget() (ir.Addr, bool) { return 0, false }
func (c *CaseStmt) ReturnExpr() ir.Expr         { return nil }
func (c *CaseStmt) Definitions() []ir.Expr      { return nil }
func (c *CaseStmt) Uses() []ir.Expr             { return []ir.Expr{c.Info.SwitchVar} }
func (c *CaseStmt) String() string {
	return fmt.Sprintf("switch %s", c.Info.SwitchVar.String())
}

// ReturnStmt terminates a Return block, optionally carrying a value.
type ReturnStmt struct {
	Value ir.Expr
}

func (r *ReturnStmt) Kind() ir.Kind               { return ir.KindReturn }
func (r *ReturnStmt) CondExpr() ir.Expr           { return nil }
func (r *ReturnStmt) SetCondExpr(ir.Expr)         {}
func (r *ReturnStmt) BranchKind() ir.BranchKind   { return ir.BranchUnknown }
func (r *ReturnStmt) SwitchInfo() *ir.SwitchInfo  { return nil }
func (r *ReturnStmt) CallTarget() (ir.Addr, bool) { return 0, false }
func (r *ReturnStmt) ReturnExpr() ir.Expr         { return r.Value }
func (r *ReturnStmt) Definitions() []ir.Expr      { return nil }
func (r *ReturnStmt) Uses() []ir.Expr {
	if r.Value == nil {
		return nil
	}
	return []ir.Expr{r.Value}
}
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// PhiStmt is a phi assignment of the kind BasicBlock::prependStmt installs
// ahead of a block during SSA-adjacent analyses; its Sources are the
// incoming definitions, one per predecessor.
type PhiStmt struct {
	LHS     ir.Expr
	Sources []ir.Expr
}

func (p *PhiStmt) Kind() ir.Kind               { return ir.KindPhi }
func (p *PhiStmt) CondExpr() ir.Expr           { return nil }
func (p *PhiStmt) SetCondExpr(ir.Expr)         {}
func (p *PhiStmt) BranchKind() ir.BranchKind   { return ir.BranchUnknown }
func (p *PhiStmt) SwitchInfo() *ir.SwitchInfo  { return nil }
func (p *PhiStmt) CallTarget() (ir.Addr, bool) { return 0, false }
func (p *PhiStmt) ReturnExpr() ir.Expr         { return nil }
func (p *PhiStmt) Definitions() []ir.Expr      { return []ir.Expr{p.LHS} }
func (p *PhiStmt) Uses() []ir.Expr             { return p.Sources }
func (p *PhiStmt) String() string {
	parts := make([]string, len(p.Sources))
	for i, s := range p.Sources {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s = phi(%s)", p.LHS.String(), strings.Join(parts, ", "))
}
