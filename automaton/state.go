package automaton

// State is an opaque state label as assigned by the .fa input format. The
// engine never assumes labels are contiguous or small.
type State uint64

// Automaton is the editable, label-keyed NFA: the tuple <Q, q0, F, delta>
// of spec section 3. Q is tracked explicitly because a state may be present
// with no outgoing transitions (e.g. a final state after
// ClearFinalStateSelfLoop strips its absorbing self-loop).
type Automaton struct {
	initial State
	states  map[State]struct{}
	final   map[State]struct{}
	// trans[p][b] is the nonempty set of states delta(p, b) transitions to.
	trans map[State]map[byte]map[State]struct{}
}

// New returns an empty automaton whose sole state is the given initial
// state. It is primarily a building block for tests and for the .fa parser.
func New(initial State) *Automaton {
	a := &Automaton{
		initial: initial,
		states:  map[State]struct{}{initial: {}},
		final:   map[State]struct{}{},
		trans:   map[State]map[byte]map[State]struct{}{},
	}
	return a
}

// Initial returns q0.
func (a *Automaton) Initial() State {
	return a.initial
}

// States returns the set Q. The caller must not mutate the returned map.
func (a *Automaton) States() map[State]struct{} {
	return a.states
}

// NumStates returns |Q|.
func (a *Automaton) NumStates() int {
	return len(a.states)
}

// Finals returns the set F. The caller must not mutate the returned map.
func (a *Automaton) Finals() map[State]struct{} {
	return a.final
}

// IsFinal reports whether s is in F.
func (a *Automaton) IsFinal(s State) bool {
	_, ok := a.final[s]
	return ok
}

// HasState reports whether s is in Q.
func (a *Automaton) HasState(s State) bool {
	_, ok := a.states[s]
	return ok
}

// addState inserts s into Q if absent.
func (a *Automaton) addState(s State) {
	if _, ok := a.states[s]; !ok {
		a.states[s] = struct{}{}
	}
}

// AddTransition adds s -b-> dst to delta, inserting both endpoints into Q
// if needed.
func (a *Automaton) AddTransition(s State, b byte, dst State) {
	a.addState(s)
	a.addState(dst)
	byDst, ok := a.trans[s]
	if !ok {
		byDst = map[byte]map[State]struct{}{}
		a.trans[s] = byDst
	}
	set, ok := byDst[b]
	if !ok {
		set = map[State]struct{}{}
		byDst[b] = set
	}
	set[dst] = struct{}{}
}

// AddFinal marks f as a final state, inserting it into Q if needed.
func (a *Automaton) AddFinal(f State) {
	a.addState(f)
	a.final[f] = struct{}{}
}

// Targets returns delta(s, b), or nil if there is no such transition.
// The caller must not mutate the returned map.
func (a *Automaton) Targets(s State, b byte) map[State]struct{} {
	byDst, ok := a.trans[s]
	if !ok {
		return nil
	}
	return byDst[b]
}

// OutEdges returns the full outgoing transition map for s: byte -> set of
// destination states. The caller must not mutate the returned map.
func (a *Automaton) OutEdges(s State) map[byte]map[State]struct{} {
	return a.trans[s]
}

// OutDegree returns the number of distinct bytes s has a transition on.
func (a *Automaton) OutDegree(s State) int {
	return len(a.trans[s])
}
