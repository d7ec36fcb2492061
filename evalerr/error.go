// Package evalerr implements the error evaluator (C8) of spec section 4.8:
// a parallel worker pool that replays test traffic through a target and a
// reduced array NFA, aggregating per-final and per-packet disagreement
// counters.
package evalerr

import "fmt"

// ShapeMismatch is returned by Stats.Aggregate when two records carry
// per-final vectors of different lengths.
type ShapeMismatch struct {
	Len1, Len2 int
}

func (e *ShapeMismatch) Error() string {
	return fmt.Sprintf("evalerr: shape mismatch aggregating stats: %d vs %d final slots", e.Len1, e.Len2)
}

// NotOverApproximation is raised in strict mode when a packet hits more
// final states of the target than of the reduced automaton; a packet
// accepted by the target and rejected by the reduced automaton, which
// violates L(T) subseteq L(R), is one such case.
type NotOverApproximation struct {
	Pcap  string
	Index int
}

func (e *NotOverApproximation) Error() string {
	return fmt.Sprintf("evalerr: %s: packet %d hit more final states in target than in reduced automaton", e.Pcap, e.Index)
}
