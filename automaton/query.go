package automaton

// Succ returns the complete successor relation: label -> set of labels
// reachable via any single byte. Derived fresh on every call, never
// cached, since delta may change between calls via merge.
func (a *Automaton) Succ() map[State]map[State]struct{} {
	out := make(map[State]map[State]struct{}, len(a.states))
	for p := range a.states {
		out[p] = map[State]struct{}{}
	}
	for p, byDst := range a.trans {
		for _, dsts := range byDst {
			for q := range dsts {
				out[p][q] = struct{}{}
			}
		}
	}
	return out
}

// Pred returns the complete predecessor relation: label -> set of labels
// with an edge into it. Derived fresh on every call, never cached.
func (a *Automaton) Pred() map[State]map[State]struct{} {
	out := make(map[State]map[State]struct{}, len(a.states))
	for p := range a.states {
		out[p] = map[State]struct{}{}
	}
	for p, byDst := range a.trans {
		for _, dsts := range byDst {
			for q := range dsts {
				out[q][p] = struct{}{}
			}
		}
	}
	return out
}

// StateDepth returns the forward-BFS distance from q0 to every reachable
// state; q0 has depth 0. States not reachable from q0 are absent from the
// result.
func (a *Automaton) StateDepth() map[State]int {
	succ := a.Succ()
	depth := map[State]int{a.initial: 0}
	queue := []State{a.initial}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for q := range succ[p] {
			if _, seen := depth[q]; seen {
				continue
			}
			depth[q] = depth[p] + 1
			queue = append(queue, q)
		}
	}
	return depth
}

// HasSelfLoopOverAlph reports whether s is self-looping over Sigma: it has
// transitions on all 256 byte values and every one of them includes s
// among its targets. A byte's target set may also include other states —
// an NFA's wildcard sink can nondeterministically both stay put and
// branch onward into a literal continuation on the same byte.
func (a *Automaton) HasSelfLoopOverAlph(s State) bool {
	byDst := a.trans[s]
	if len(byDst) != 256 {
		return false
	}
	for _, dsts := range byDst {
		if _, ok := dsts[s]; !ok {
			return false
		}
	}
	return true
}

// ClearFinalStateSelfLoop drops, for every final state whose outgoing
// transitions consist only of (f, a, f) edges, those transitions: final
// states are implicitly absorbing, so a self-loop over some or all of
// Sigma back onto f carries no information once f itself is reached.
func (a *Automaton) ClearFinalStateSelfLoop() {
	for f := range a.final {
		byDst := a.trans[f]
		if len(byDst) == 0 {
			continue
		}
		onlySelf := true
		for _, dsts := range byDst {
			if len(dsts) != 1 {
				onlySelf = false
				break
			}
			if _, ok := dsts[f]; !ok {
				onlySelf = false
				break
			}
		}
		if onlySelf {
			delete(a.trans, f)
		}
	}
}

// RemoveUnreachable drops every state not reached by a forward BFS from
// q0, including its outgoing and incoming transitions.
func (a *Automaton) RemoveUnreachable() {
	reachable := map[State]struct{}{a.initial: {}}
	queue := []State{a.initial}
	succ := a.Succ()
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for q := range succ[p] {
			if _, ok := reachable[q]; !ok {
				reachable[q] = struct{}{}
				queue = append(queue, q)
			}
		}
	}

	for s := range a.states {
		if _, ok := reachable[s]; !ok {
			delete(a.states, s)
			delete(a.final, s)
			delete(a.trans, s)
		}
	}
	for p, byDst := range a.trans {
		if _, ok := reachable[p]; !ok {
			continue
		}
		for b, dsts := range byDst {
			for q := range dsts {
				if _, ok := reachable[q]; !ok {
					delete(dsts, q)
				}
			}
			if len(dsts) == 0 {
				delete(byDst, b)
			}
		}
	}
}
