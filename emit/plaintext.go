package emit

import (
	"fmt"
	"strings"

	"github.com/boomslang/structurer/ir"
)

// PlainText is a simple indenting HLLCode sink that writes C-like
// pseudocode to an internal buffer, used by the CLI and by tests that
// assert on the emitted text (Testable Property 5, bracket balance).
type PlainText struct {
	lines    []string
	warnings []string
	indent   string
}

// NewPlainText returns a PlainText writer using the given per-level indent
// string (e.g. "    " or "\t").
func NewPlainText(indentUnit string) *PlainText {
	if indentUnit == "" {
		indentUnit = "    "
	}
	return &PlainText{indent: indentUnit}
}

func (w *PlainText) pad(indent int) string {
	return strings.Repeat(w.indent, indent)
}

func (w *PlainText) emit(indent int, format string, args ...interface{}) {
	w.lines = append(w.lines, w.pad(indent)+fmt.Sprintf(format, args...))
}

// String returns the accumulated pseudocode.
func (w *PlainText) String() string { return strings.Join(w.lines, "\n") }

// Warnings returns every non-fatal diagnostic surfaced during emission.
func (w *PlainText) Warnings() []string { return w.warnings }

func (w *PlainText) AddLabel(indent, ord int) { w.emit(indent, "L%d:", ord) }
func (w *PlainText) AddGoto(indent, ord int)  { w.emit(indent, "goto L%d;", ord) }
func (w *PlainText) AddContinue(indent int)   { w.emit(indent, "continue;") }
func (w *PlainText) AddBreak(indent int)      { w.emit(indent, "break;") }
func (w *PlainText) AddReturnStatement(indent int, expr ir.Expr) {
	if expr == nil {
		w.emit(indent, "return;")
		return
	}
	w.emit(indent, "return %s;", expr.String())
}

func (w *PlainText) AddPretestedLoopHeader(indent int, cond ir.Expr) {
	w.emit(indent, "while (%s) {", cond.String())
}
func (w *PlainText) AddPretestedLoopEnd(indent int) { w.emit(indent, "}") }
func (w *PlainText) AddPosttestedLoopHeader(indent int) {
	w.emit(indent, "do {")
}
func (w *PlainText) AddPosttestedLoopEnd(indent int, cond ir.Expr) {
	w.emit(indent, "} while (%s);", cond.String())
}
func (w *PlainText) AddEndlessLoopHeader(indent int) { w.emit(indent, "while (true) {") }
func (w *PlainText) AddEndlessLoopEnd(indent int)    { w.emit(indent, "}") }

func (w *PlainText) AddIfCondHeader(indent int, cond ir.Expr) {
	w.emit(indent, "if (%s) {", cond.String())
}
func (w *PlainText) AddIfCondEnd(indent int) { w.emit(indent, "}") }
func (w *PlainText) AddIfElseCondHeader(indent int, cond ir.Expr) {
	w.emit(indent, "if (%s) {", cond.String())
}
func (w *PlainText) AddIfElseCondOption(indent int) { w.emit(indent, "} else {") }
func (w *PlainText) AddIfElseCondEnd(indent int)    { w.emit(indent, "}") }

func (w *PlainText) AddCaseCondHeader(indent int, switchVar ir.Expr) {
	w.emit(indent, "switch (%s) {", switchVar.String())
}
func (w *PlainText) AddCaseCondOption(indent int, caseVal int) {
	w.emit(indent, "case %d:", caseVal)
}
func (w *PlainText) AddCaseCondOptionEnd(indent int) { w.emit(indent, "break;") }
func (w *PlainText) AddCaseCondEnd(indent int)       { w.emit(indent, "}") }

func (w *PlainText) AddStmt(indent int, s ir.Stmt) {
	w.emit(indent, "%s;", s.String())
}

func (w *PlainText) Warn(message string) {
	w.warnings = append(w.warnings, message)
}
