package automaton

import (
	"fmt"
	"sort"
)

// MergeStates fuses each source state into its destination per m: Qsrc ->
// Qdst, per spec section 4.1. It fails with InvalidMerge if any source or
// destination is outside Q, or if q0 is in dom(m). Callers must supply
// acyclic maps; behavior is unspecified for a merge map containing a cycle
// among merged states.
func (a *Automaton) MergeStates(m map[State]State) error {
	for src, dst := range m {
		if !a.HasState(src) || !a.HasState(dst) {
			return &Error{Kind: InvalidMerge, Message: fmt.Sprintf("merge endpoint not in Q: %d -> %d", src, dst)}
		}
		if src == a.initial {
			return &Error{Kind: InvalidMerge, Message: fmt.Sprintf("cannot merge initial state %d", src)}
		}
	}

	// Union each source's outgoing edges and finality into its destination.
	for src, dst := range m {
		if src == dst {
			continue
		}
		if byDst, ok := a.trans[src]; ok {
			for b, dsts := range byDst {
				for q := range dsts {
					a.AddTransition(dst, b, q)
				}
			}
		}
		if _, ok := a.final[src]; ok {
			a.final[dst] = struct{}{}
		}
	}

	// Drop the merged-away sources.
	for src, dst := range m {
		if src == dst {
			continue
		}
		delete(a.trans, src)
		delete(a.final, src)
		delete(a.states, src)
	}

	// Rewrite every remaining transition's target set through m.
	for _, byDst := range a.trans {
		for b, dsts := range byDst {
			newDsts := make(map[State]struct{}, len(dsts))
			for q := range dsts {
				if nq, ok := m[q]; ok {
					newDsts[nq] = struct{}{}
				} else {
					newDsts[q] = struct{}{}
				}
			}
			byDst[b] = newDsts
		}
	}

	a.ClearFinalStateSelfLoop()
	return nil
}

// sinkRoots returns the direct successors of q0 that are self-looping over
// Sigma and whose only predecessors are {q0, self} — the rule-subtree
// roots referenced by MergeSLStates and MergeFinalStates.
func (a *Automaton) sinkRoots() []State {
	succ := a.Succ()
	pred := a.Pred()
	var roots []State
	for child := range succ[a.initial] {
		if !a.HasSelfLoopOverAlph(child) {
			continue
		}
		onlyQ0AndSelf := true
		for p := range pred[child] {
			if p != a.initial && p != child {
				onlyQ0AndSelf = false
				break
			}
		}
		if onlyQ0AndSelf {
			roots = append(roots, child)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// MergeSLStates collapses all rule-subtree roots (see sinkRoots) into a
// single representative (the smallest label). A lightweight
// minimization pre-pass: distinct rules whose recognition begins at an
// identical "consume anything" sink are, from q0's perspective,
// indistinguishable until their sink is left.
func (a *Automaton) MergeSLStates() error {
	roots := a.sinkRoots()
	if len(roots) < 2 {
		return nil
	}
	rep := roots[0]
	m := make(map[State]State, len(roots)-1)
	for _, r := range roots[1:] {
		m[r] = rep
	}
	return a.MergeStates(m)
}

// MergeFinalStates fuses final states together. When all is true, every
// final state is fused into one. Otherwise, within each rule subtree
// rooted at a sinkRoots() state, all final states reachable from that
// root are fused into one representative per subtree.
func (a *Automaton) MergeFinalStates(all bool) error {
	if len(a.final) < 2 {
		return nil
	}

	if all {
		finals := sortedStates(a.final)
		rep := finals[0]
		m := make(map[State]State, len(finals)-1)
		for _, f := range finals[1:] {
			m[f] = rep
		}
		return a.MergeStates(m)
	}

	succ := a.Succ()
	m := map[State]State{}
	for _, root := range a.sinkRoots() {
		finals := a.finalsReachableFrom(root, succ)
		if len(finals) < 2 {
			continue
		}
		rep := finals[0]
		for _, f := range finals[1:] {
			if _, already := m[f]; !already {
				m[f] = rep
			}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return a.MergeStates(m)
}

// finalsReachableFrom returns, in ascending label order, every final state
// reachable from root (root itself included if final).
func (a *Automaton) finalsReachableFrom(root State, succ map[State]map[State]struct{}) []State {
	visited := map[State]struct{}{root: {}}
	queue := []State{root}
	var finals []State
	if a.IsFinal(root) {
		finals = append(finals, root)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for q := range succ[cur] {
			if _, seen := visited[q]; seen {
				continue
			}
			visited[q] = struct{}{}
			if a.IsFinal(q) {
				finals = append(finals, q)
			}
			queue = append(queue, q)
		}
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i] < finals[j] })
	return finals
}
