package reduce

import (
	"sort"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/freq"
)

// PruneRatio runs the pruner (C5) of spec section 4.5 in ratio mode: it
// redirects the lowest-traffic, deepest states onto their rule's final
// state until the merged count reaches floor((1-ratio) * |Q|_old), or
// candidates run out. It mutates m in place and returns the predicted
// error contributed by the states it removed.
func PruneRatio(m *automaton.Automaton, phi freq.LabelMap, ratio float64) (float64, error) {
	return prune(m, phi, func(candidates []candidate, origSize int) int {
		return int((1 - ratio) * float64(origSize))
	}, 0, false)
}

// PruneBudget runs the pruner (C5) of spec section 4.5 in error-budget
// mode: it keeps redirecting candidates onto their rule's final state
// until the predicted error reaches budget, or candidates run out.
func PruneBudget(m *automaton.Automaton, phi freq.LabelMap, budget float64) (float64, error) {
	return prune(m, phi, nil, budget, true)
}

type candidate struct {
	state automaton.State
	f     uint64
	depth int
}

// prune implements the shared body of PruneRatio and PruneBudget. limitFn,
// when non-nil, computes the ratio-mode merge-count cutoff from the sorted
// candidate list and the automaton's original size; useBudget selects
// budget-mode instead (exactly one is active, mirroring spec section 4.5's
// mutually exclusive modes).
func prune(m *automaton.Automaton, phi freq.LabelMap, limitFn func([]candidate, int) int, budget float64, useBudget bool) (float64, error) {
	ruleOf := m.SplitToRules()
	depth := m.StateDepth()

	var total uint64
	for s := range m.States() {
		if f, ok := phi[s]; ok && f > total {
			total = f
		}
	}
	if total == 0 {
		return 0, nil
	}

	var candidates []candidate
	for s := range m.States() {
		if s == m.Initial() || m.IsFinal(s) {
			continue
		}
		f, ok := phi[s]
		if !ok {
			return 0, &OutOfRange{State: uint64(s)}
		}
		candidates = append(candidates, candidate{state: s, f: f, depth: depth[s]})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].f != candidates[j].f {
			return candidates[i].f < candidates[j].f
		}
		return candidates[i].depth > candidates[j].depth
	})

	origSize := m.NumStates()
	limit := -1
	if limitFn != nil {
		limit = limitFn(candidates, origSize)
	}

	mergeMap := map[automaton.State]automaton.State{}
	var predictedError float64
	for _, c := range candidates {
		if useBudget {
			if predictedError >= budget {
				break
			}
		} else if len(mergeMap) >= limit {
			break
		}
		mergeMap[c.state] = ruleOf[c.state]
		predictedError += float64(c.f) / float64(total)
	}

	if len(mergeMap) == 0 {
		return predictedError, nil
	}
	if err := m.MergeStates(mergeMap); err != nil {
		return predictedError, err
	}
	return predictedError, nil
}
