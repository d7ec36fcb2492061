// Package reduce implements the pruner (C5), merger (C6), and reducer
// orchestrator (C7) of spec sections 4.5–4.7: the two structural reduction
// algorithms, guided by per-state frequencies, that turn a target
// automaton into an over-approximating reduced automaton at a chosen
// fraction of its original size.
package reduce

import "fmt"

// OutOfRange is raised by the pruner's candidate sort when a candidate
// state has no entry in the supplied frequency map — a programmer error,
// since the frequency map must be total over Q before pruning runs.
type OutOfRange struct {
	State uint64
}

func (e *OutOfRange) Error() string {
	return fmt.Sprintf("reduce: state %d missing from frequency map", e.State)
}

// InsufficientTraining is raised by the iterative orchestrator when the
// training source has too few packets to divide into iterations windows
// worth labeling.
type InsufficientTraining struct {
	Total      uint64
	Iterations int
}

func (e *InsufficientTraining) Error() string {
	return fmt.Sprintf("reduce: training source has only %d packets, too few for %d iterations", e.Total, e.Iterations)
}
