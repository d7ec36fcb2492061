// Package literal implements the literal prefilter (C0): a derived,
// accept/reject-preserving optimization that lets the error evaluator skip
// full simulation of a rule it can prove unreachable for a given payload.
package literal

import (
	"sort"

	"github.com/coregx/ahocorasick"

	"github.com/sigreduce/nfareduce/automaton"
)

// Literal is a non-empty byte sequence forced to occur in any payload that
// reaches its rule's prefix.
type Literal []byte

// ExtractForced walks forward from q0, for every final state f, following
// the chain of states whose sole rule-relevant outgoing byte leads
// deterministically deeper into f's rule; it stops at the first branch
// (more than one rule-relevant byte, or a nondeterministic target set for
// one), a revisit, or the rule's own final state. Rules reached by a
// branch already at q0 yield no entry in the result.
func ExtractForced(m *automaton.Automaton) map[automaton.State]Literal {
	ruleOf := m.SplitToRules()
	out := make(map[automaton.State]Literal)
	for f := range m.Finals() {
		if lit := forcedPrefix(m, ruleOf, f); len(lit) > 0 {
			out[f] = lit
		}
	}
	return out
}

func forcedPrefix(m *automaton.Automaton, ruleOf map[automaton.State]automaton.State, f automaton.State) Literal {
	cur := m.Initial()
	visited := map[automaton.State]bool{cur: true}
	var lit Literal

	for {
		var chosenByte byte
		var chosenTargets map[automaton.State]struct{}
		relevant := 0

		for b, dsts := range m.OutEdges(cur) {
			inRule := false
			for d := range dsts {
				if ruleOf[d] == f {
					inRule = true
					break
				}
			}
			if inRule {
				relevant++
				chosenByte, chosenTargets = b, dsts
			}
		}
		if relevant != 1 || len(chosenTargets) != 1 {
			return lit
		}

		var next automaton.State
		for d := range chosenTargets {
			next = d
		}
		if ruleOf[next] != f || visited[next] {
			return lit
		}

		lit = append(lit, chosenByte)
		cur = next
		visited[next] = true
		if cur == f || m.IsFinal(cur) {
			return lit
		}
	}
}

// Prefilter is the compiled multi-pattern matcher C8 consults in fast mode
// before running the reduced automaton's simulation: if no rule's forced
// literal occurs in the payload, no rule's prefix was reached, so m_R is
// known to be 0 without a simulation pass.
type Prefilter struct {
	automaton *ahocorasick.Automaton
}

// CompilePrefilter builds a Prefilter from the forced literals returned by
// ExtractForced. An empty or nil map yields a Prefilter that always
// reports a possible match (no rule can be safely skipped).
func CompilePrefilter(lits map[automaton.State]Literal) (*Prefilter, error) {
	if len(lits) == 0 {
		return &Prefilter{}, nil
	}

	labels := make([]automaton.State, 0, len(lits))
	for f := range lits {
		labels = append(labels, f)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	builder := ahocorasick.NewBuilder()
	for _, f := range labels {
		builder.AddPattern(lits[f])
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &Prefilter{automaton: auto}, nil
}

// MayMatch reports whether payload could reach any rule covered by the
// prefilter. A false result proves m_R (or m_T) is 0 for this payload
// without running the automaton; a true result is not a guarantee of
// acceptance, only that simulation cannot yet be skipped.
func (p *Prefilter) MayMatch(payload []byte) bool {
	if p == nil || p.automaton == nil {
		return true
	}
	return p.automaton.IsMatch(payload)
}
