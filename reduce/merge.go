package reduce

import (
	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/freq"
)

// Merge runs the merger (C6) of spec section 4.6: a forward BFS from q0
// that fuses a successor into its predecessor's representative whenever
// the successor's traffic is within tau of the predecessor's, subject to
// an optional upper-frequency cap on which predecessors are even
// considered. It mutates m in place and returns the number of states
// merged away.
//
// cap is the optional kappa of spec section 4.6: when non-nil, a frontier
// state p is only examined as a merge predecessor while
// phi(p) <= *cap * phi(q0). A nil cap disables the bound.
func Merge(m *automaton.Automaton, phi freq.LabelMap, tau float64, cap *float64) (int, error) {
	succ := m.Succ()
	phiMax := phi[m.Initial()]

	mergeMap := map[automaton.State]automaton.State{}
	visited := map[automaton.State]struct{}{m.Initial(): {}}
	queue := []automaton.State{m.Initial()}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		eligible := phi[p] > 0 && !m.IsFinal(p) &&
			(cap == nil || float64(phi[p]) <= *cap*float64(phiMax))

		for q := range succ[p] {
			if _, seen := visited[q]; seen {
				continue
			}
			visited[q] = struct{}{}
			queue = append(queue, q)

			if !eligible {
				continue
			}
			if m.IsFinal(q) {
				continue
			}
			if anySuccFinal(m, succ, q) {
				continue
			}
			if phi[q] == 0 || phi[p] == 0 {
				continue
			}
			if float64(phi[q])/float64(phi[p]) < tau {
				continue
			}
			rep, ok := mergeMap[p]
			if !ok {
				rep = p
			}
			mergeMap[q] = rep
		}
	}

	if len(mergeMap) == 0 {
		return 0, nil
	}
	if err := m.MergeStates(mergeMap); err != nil {
		return 0, err
	}
	return len(mergeMap), nil
}

func anySuccFinal(m *automaton.Automaton, succ map[automaton.State]map[automaton.State]struct{}, s automaton.State) bool {
	for q := range succ[s] {
		if m.IsFinal(q) {
			return true
		}
	}
	return false
}
