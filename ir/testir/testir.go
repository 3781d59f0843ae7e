// Package testir is a small, concrete implementation of the ir capability
// interfaces, used by the synth builder, the structurer test suites, and the
// CLI (whose program files are decoded with this package's Codec). It is not
// meant to be a real expression simplifier;
// it implements just enough of ir.Expr's clone/simplify/equal/negate contract
// (grounded on the capability list boomerang's exp.h exposes) to drive the
// structuring algorithms end to end.
package testir

import (
	"fmt"

	"github.com/boomslang/structurer/ir"
)

// Op is a binary comparison or arithmetic operator.
type Op string

const (
	Eq  Op = "=="
	Neq Op = "!="
	Lt  Op = "<"
	Gt  Op = ">"
	Le  Op = "<="
	Ge  Op = ">="
	Add Op = "+"
	Sub Op = "-"
)

var negated = map[Op]Op{
	Eq:  Neq,
	Neq: Eq,
	Lt:  Ge,
	Gt:  Le,
	Le:  Gt,
	Ge:  Lt,
}

// Const is an integer literal expression.
type Const int64

func (c Const) Clone() ir.Expr         { return c }
func (c Const) Simplify() ir.Expr      { return c }
func (c Const) IsSubscript() bool      { return false }
func (c Const) Negate() ir.Expr {
	if c == 0 {
		return Const(1)
	}
	return Const(0)
}
func (c Const) String() string         { return fmt.Sprintf("%d", int64(c)) }
func (c Const) Equal(o ir.Expr) bool {
	other, ok := o.(Const)
	return ok && other == c
}

// Ref is a named variable reference, optionally subscripted (e.g. an array
// or register element), matching ir.Expr.IsSubscript's intended use.
type Ref struct {
	Name    string
	Index   ir.Expr // non-nil iff this is a subscripted reference
}

func (r Ref) Clone() ir.Expr {
	if r.Index == nil {
		return Ref{Name: r.Name}
	}
	return Ref{Name: r.Name, Index: r.Index.Clone()}
}
func (r Ref) Simplify() ir.Expr   { return r }
func (r Ref) IsSubscript() bool   { return r.Index != nil }
func (r Ref) Negate() ir.Expr     { return UnExpr{Op: "!", X: r} }
func (r Ref) String() string {
	if r.Index == nil {
		return r.Name
	}
	return fmt.Sprintf("%s[%s]", r.Name, r.Index.String())
}
func (r Ref) Equal(o ir.Expr) bool {
	other, ok := o.(Ref)
	if !ok || other.Name != r.Name {
		return false
	}
	if (r.Index == nil) != (other.Index == nil) {
		return false
	}
	if r.Index == nil {
		return true
	}
	return r.Index.Equal(other.Index)
}

// BinExpr is a binary operator expression: X <Op> Y.
type BinExpr struct {
	Op   Op
	X, Y ir.Expr
}

func (b BinExpr) Clone() ir.Expr {
	return BinExpr{Op: b.Op, X: b.X.Clone(), Y: b.Y.Clone()}
}

// Simplify folds Add/Sub of two constant operands and otherwise rebuilds
// the expression from its simplified operands; it makes no attempt at
// general algebraic simplification, matching the stated out-of-scope
// "symbolic simplification of expressions" (spec §1). Readable negated
// conditions come from Negate inverting the operator, not from Simplify.
func (b BinExpr) Simplify() ir.Expr {
	x, y := b.X.Simplify(), b.Y.Simplify()
	if cx, ok := x.(Const); ok {
		if cy, ok := y.(Const); ok {
			switch b.Op {
			case Add:
				return Const(cx + cy)
			case Sub:
				return Const(cx - cy)
			}
		}
	}
	return BinExpr{Op: b.Op, X: x, Y: y}
}

func (b BinExpr) IsSubscript() bool { return false }

// Negate inverts a comparison operator directly rather than wrapping the
// whole expression in a unary not, which is what lets AddIfCondHeader emit
// "a >= b" instead of "!(a < b)" when an IfElse condition is inverted.
func (b BinExpr) Negate() ir.Expr {
	if inv, ok := negated[b.Op]; ok {
		return BinExpr{Op: inv, X: b.X, Y: b.Y}
	}
	return UnExpr{Op: "!", X: b}
}

func (b BinExpr) String() string {
	return fmt.Sprintf("%s %s %s", b.X.String(), b.Op, b.Y.String())
}

func (b BinExpr) Equal(o ir.Expr) bool {
	other, ok := o.(BinExpr)
	return ok && other.Op == b.Op && other.X.Equal(b.X) && other.Y.Equal(b.Y)
}

// UnExpr is a unary operator expression, used for "!x" negation when the
// inner expression has no directly-invertible operator.
type UnExpr struct {
	Op string
	X  ir.Expr
}

func (u UnExpr) Clone() ir.Expr    { return UnExpr{Op: u.Op, X: u.X.Clone()} }
func (u UnExpr) Simplify() ir.Expr { return UnExpr{Op: u.Op, X: u.X.Simplify()} }
func (u UnExpr) IsSubscript() bool { return false }

// Negate un-negates a "!x" back to x, rather than double-wrapping.
func (u UnExpr) Negate() ir.Expr {
	if u.Op == "!" {
		return u.X
	}
	return UnExpr{Op: "!", X: u}
}
func (u UnExpr) String() string { return u.Op + u.X.String() }
func (u UnExpr) Equal(o ir.Expr) bool {
	other, ok := o.(UnExpr)
	return ok && other.Op == u.Op && other.X.Equal(u.X)
}
