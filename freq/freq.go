// Package freq implements the frequency labeler (spec section 4.4) and the
// state-frequency file format (spec section 6): a mapping from dense state
// index to the count of packets that visited it at least once.
package freq

import (
	"io"

	"github.com/sigreduce/nfareduce/automaton/dense"
)

// Map is keyed by dense state index, per spec section 3's frequency map,
// realized against the array form's indices rather than symbolic labels
// (the reducer remaps to labels when it needs to call automaton.MergeStates).
type Map []uint64

// NewMap allocates a zeroed frequency map sized to d's state count.
func NewMap(d *dense.Dense) Map {
	return make(Map, d.NumStates())
}

// Label runs the frequency labeler (C4) of spec section 4.4: it iterates
// payloads from src, labeling each through d, until src is exhausted or
// limit packets have been processed (limit == 0 means unbounded — used by
// the single-pass reducer mode; a positive limit bounds each window of the
// iterative reducer mode). It returns the number of packets actually
// processed.
func Label(d *dense.Dense, src PayloadSource, limit uint64) (Map, uint64, error) {
	m := NewMap(d)
	var processed uint64
	for limit == 0 || processed < limit {
		payload, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, processed, err
		}
		d.LabelStates(m, payload)
		processed++
	}
	return m, processed, nil
}

// PayloadSource is the minimal surface the labeler needs from a capture
// source: a way to pull the next non-empty payload, returning io.EOF once
// exhausted. capture.Source satisfies it; tests can supply an in-memory
// slice-backed source without importing package capture.
type PayloadSource interface {
	Next() ([]byte, error)
}
