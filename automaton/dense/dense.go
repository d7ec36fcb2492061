// Package dense implements the executable NFA form (spec section 4.2): a
// flat, cache-friendly transition table indexed by (state index, byte),
// built once from a automaton.Automaton snapshot and immutable thereafter.
// Any edit to the symbolic form invalidates an existing Dense; the caller
// must rebuild.
package dense

import (
	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/internal/conv"
	"github.com/sigreduce/nfareduce/internal/sparse"
)

const alphabetSize = 256

// Dense is the array-backed executable NFA. Transitions live in a single
// flat slice of length len(states)*256; the entry at (i<<8)|b holds the
// successor indices for state index i on byte b.
type Dense struct {
	trans      [][]uint32 // trans[(i<<8)|b] -> successor indices, indexed flat below
	numStates  int
	final      []bool   // final[i] true iff index i is a final state
	stateMap   map[automaton.State]uint32
	indexLabel []automaton.State // inverse of stateMap, for printing
	initial    uint32
}

// Build assigns each label in a a dense index in ascending label order and
// allocates the flat transition table. Indices do not follow the order in
// which states were inserted into the symbolic delta.
func Build(a *automaton.Automaton) *Dense {
	states := a.States()
	n := len(states)

	d := &Dense{
		numStates:  n,
		final:      make([]bool, n),
		stateMap:   make(map[automaton.State]uint32, n),
		indexLabel: make([]automaton.State, n),
		trans:      make([][]uint32, n*alphabetSize),
	}

	// Assign indices in a deterministic order (ascending label) so two
	// builds from the same symbolic snapshot produce the same Dense.
	labels := make([]automaton.State, 0, n)
	for s := range states {
		labels = append(labels, s)
	}
	sortStates(labels)
	for i, lbl := range labels {
		idx := conv.IntToUint32(i)
		d.stateMap[lbl] = idx
		d.indexLabel[idx] = lbl
		if a.IsFinal(lbl) {
			d.final[idx] = true
		}
	}
	d.initial = d.stateMap[a.Initial()]

	for _, lbl := range labels {
		p := d.stateMap[lbl]
		for b, dsts := range a.OutEdges(lbl) {
			row := make([]uint32, 0, len(dsts))
			for q := range dsts {
				row = append(row, d.stateMap[q])
			}
			d.trans[(uint32(p)<<8)|uint32(b)] = row
		}
	}

	return d
}

func sortStates(s []automaton.State) {
	// insertion sort is fine here: called once per Build, states counts
	// in this domain are in the thousands at most.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// NumStates returns |Q|.
func (d *Dense) NumStates() int {
	return d.numStates
}

// Index returns the dense index for a symbolic label, and whether it
// exists.
func (d *Dense) Index(label automaton.State) (uint32, bool) {
	idx, ok := d.stateMap[label]
	return idx, ok
}

// Label returns the symbolic label for a dense index.
func (d *Dense) Label(idx uint32) automaton.State {
	return d.indexLabel[idx]
}

// InitialIndex returns the dense index of q0.
func (d *Dense) InitialIndex() uint32 {
	return d.initial
}

// IsFinalIndex reports whether idx is a final state.
func (d *Dense) IsFinalIndex(idx uint32) bool {
	return d.final[idx]
}

func (d *Dense) row(idx uint32, b byte) []uint32 {
	return d.trans[(idx<<8)|uint32(b)]
}

// Accept runs the classical subset-construction simulation of spec
// section 4.2: a frontier starting at {index(q0)}, advanced one byte at a
// time, accepting as soon as any produced index is final.
func (d *Dense) Accept(word []byte) bool {
	frontier := sparse.NewSparseSet(conv.IntToUint32(d.numStates))
	next := sparse.NewSparseSet(conv.IntToUint32(d.numStates))
	frontier.Insert(d.initial)
	if d.final[d.initial] {
		return true
	}

	for _, b := range word {
		next.Clear()
		frontier.Iter(func(i uint32) {
			for _, q := range d.row(i, b) {
				next.Insert(q)
			}
		})
		frontier, next = next, frontier
		if frontier.IsEmpty() {
			return false
		}
		accepted := false
		frontier.Iter(func(i uint32) {
			if d.final[i] {
				accepted = true
			}
		})
		if accepted {
			return true
		}
	}
	return false
}

// ParseWord runs the same simulation as Accept without short-circuiting on
// a final state, invoking onVisit for every state entered (including the
// initial state before any byte is consumed) and onStep once per byte
// consumed. Used by the frequency labeler and any analysis needing the
// full reachability trace.
func (d *Dense) ParseWord(word []byte, onVisit func(idx uint32), onStep func()) {
	frontier := sparse.NewSparseSet(conv.IntToUint32(d.numStates))
	next := sparse.NewSparseSet(conv.IntToUint32(d.numStates))
	frontier.Insert(d.initial)
	if onVisit != nil {
		onVisit(d.initial)
	}

	for _, b := range word {
		next.Clear()
		frontier.Iter(func(i uint32) {
			for _, q := range d.row(i, b) {
				next.Insert(q)
				if onVisit != nil {
					onVisit(q)
				}
			}
		})
		frontier, next = next, frontier
		if onStep != nil {
			onStep()
		}
		if frontier.IsEmpty() {
			return
		}
	}
}

// LabelStates runs ParseWord over word and, for every dense index other
// than InitialIndex() visited at least once, increments freq[idx]; it then
// increments freq[InitialIndex()] exactly once, unconditionally. freq must be sized to at least NumStates(). This
// is the packet-granular contract of spec section 4.2: a state visited k
// times within one packet contributes exactly 1 to freq, not k.
func (d *Dense) LabelStates(freq []uint64, word []byte) {
	visited := sparse.NewSparseSet(conv.IntToUint32(d.numStates))
	d.ParseWord(word, func(idx uint32) { visited.Insert(idx) }, nil)
	visited.Iter(func(idx uint32) {
		if idx != d.initial {
			freq[idx]++
		}
	})
	freq[d.initial]++
}
