package automaton

// SplitToRules returns ruleOf: Q -> Q such that ruleOf[q0] = q0, every
// final f maps to itself, and every other state maps to the final state
// of the rule it belongs to, per spec section 4.1.
//
// Iteration order of F is pinned to ascending label order (Open Question 1
// of spec section 9): the source's insertion-order iteration of a
// hash-keyed set was implementation-defined, so this fixes a deterministic
// choice rather than inheriting one.
func (a *Automaton) SplitToRules() map[State]State {
	ruleOf := make(map[State]State, len(a.states))
	ruleOf[a.initial] = a.initial
	for f := range a.final {
		ruleOf[f] = f
	}

	succ := a.Succ()
	pred := a.Pred()

	// A direct successor of q0 that loops back to itself on every byte
	// (HasSelfLoopOverAlph) is the rule-independent "anything else" sink;
	// pre-assign it to q0 before the per-final sweep claims it.
	for child := range succ[a.initial] {
		if _, assigned := ruleOf[child]; assigned {
			continue
		}
		if a.HasSelfLoopOverAlph(child) {
			ruleOf[child] = a.initial
		}
	}

	for _, f := range sortedStates(a.final) {
		visited := map[State]struct{}{f: {}}
		queue := []State{f}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for p := range pred[cur] {
				if _, seen := visited[p]; seen {
					continue
				}
				visited[p] = struct{}{}
				if _, assigned := ruleOf[p]; !assigned {
					ruleOf[p] = f
				}
				queue = append(queue, p)
			}
		}
	}

	return ruleOf
}
