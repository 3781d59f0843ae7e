// Package structure is the wiring point named in SPEC_FULL §4.9: it drives
// the five structuring components (block, traversal, interval, cond, emit)
// over a proc.Proc in order and exposes the Program-level concurrent
// runner. It is kept out of the proc package itself because proc is a
// dependency of traversal/interval/cond/emit; a Go package cannot import
// back into one of its own dependents.
package structure

import (
	"sync"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/cond"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/emit"
	"github.com/boomslang/structurer/interval"
	"github.com/boomslang/structurer/proc"
	"github.com/boomslang/structurer/traversal"
	"github.com/pkg/errors"
)

var errEmptyEntry = errors.New("structure: procedure has no entry block")

// Run executes the full structuring pipeline over p: traversal.Run,
// interval.Analyze, cond.Analyze, then emit.Generate from the entry block,
// writing to hll. A structural assertion violation raised by any stage
// (diag.Bug) is recovered here and returned as a normal error, so a
// library caller never sees a panic cross this boundary, per §7.
func Run(p *proc.Proc, hll emit.HLLCode) (log *diag.Log, err error) {
	log = &diag.Log{}
	defer func() {
		if r := recover(); r != nil {
			bug, ok := r.(diag.Bug)
			if !ok {
				panic(r)
			}
			err = bug
		}
	}()

	if p.Entry == block.NoID {
		return log, errEmptyEntry
	}

	rpoOrder, pdomOrder := traversal.Run(p, p.Entry)
	interval.Analyze(p, rpoOrder.RPO, log)
	cond.Analyze(p, pdomOrder.Order, log)

	p.ResetTraversal()
	emit.Generate(p, hll, log, p.Entry, 0, block.NoID, nil, nil)

	return log, nil
}

// Program is a named collection of procedures to be structured together,
// e.g. every function recovered from one binary.
type Program struct {
	Name  string
	Procs []*proc.Proc
}

// NewProgram creates an empty program.
func NewProgram(name string) *Program {
	return &Program{Name: name}
}

// AddProc appends a procedure to the program.
func (pg *Program) AddProc(p *proc.Proc) {
	pg.Procs = append(pg.Procs, p)
}

// Result is one procedure's structuring outcome.
type Result struct {
	Proc *proc.Proc
	HLL  emit.HLLCode
	Log  *diag.Log
	Err  error
}

// StructureAll runs every procedure in the program concurrently, bounded
// by maxParallel simultaneous procedures (maxParallel <= 0 means
// unbounded), per SPEC_FULL §4.9: structuring one procedure is strictly
// single-threaded internally (the recursive emitter is not safe to call
// from two goroutines against the same proc.Proc), but independent
// procedures share no state and may run in parallel. newHLL is called once
// per procedure to produce its own HLLCode sink.
func (pg *Program) StructureAll(maxParallel int, newHLL func() emit.HLLCode) []Result {
	results := make([]Result, len(pg.Procs))

	var sem chan struct{}
	if maxParallel > 0 {
		sem = make(chan struct{}, maxParallel)
	}

	var wg sync.WaitGroup
	for i, p := range pg.Procs {
		wg.Add(1)
		go func(i int, p *proc.Proc) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			hll := newHLL()
			log, err := Run(p, hll)
			results[i] = Result{Proc: p, HLL: hll, Log: log, Err: err}
		}(i, p)
	}
	wg.Wait()

	return results
}
