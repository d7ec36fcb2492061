package literal

import (
	"testing"

	"github.com/sigreduce/nfareduce/automaton"
)

// buildChain builds 0 -a-> 1 -b-> 2 -c-> 3(final), a linear rule with a
// clean forced literal "abc".
func buildChain() *automaton.Automaton {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'b', 2)
	a.AddTransition(2, 'c', 3)
	a.AddFinal(3)
	return a
}

func TestExtractForcedLinearChain(t *testing.T) {
	a := buildChain()
	lits := ExtractForced(a)
	lit, ok := lits[3]
	if !ok {
		t.Fatal("expected a forced literal for the final state")
	}
	if string(lit) != "abc" {
		t.Errorf("forced literal = %q, want %q", lit, "abc")
	}
}

// TestExtractForcedBranchAtRootYieldsNothing mirrors the documented
// exclusion: a rule whose first edge out of q0 already branches on more
// than one byte value has no forced literal.
func TestExtractForcedBranchAtRootYieldsNothing(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(0, 'b', 1) // two distinct bytes reach the same rule
	a.AddTransition(1, 'c', 2)
	a.AddFinal(2)

	lits := ExtractForced(a)
	if _, ok := lits[2]; ok {
		t.Error("expected no forced literal when q0 branches into the rule on more than one byte")
	}
}

// TestExtractForcedTwoRulesIndependent verifies that a separate, cleanly
// linear rule still gets its own literal even when other rules share q0.
func TestExtractForcedTwoRulesIndependent(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'x', 1)
	a.AddTransition(1, 'y', 2)
	a.AddFinal(2)

	a.AddTransition(0, 'p', 10)
	a.AddTransition(10, 'q', 11)
	a.AddFinal(11)

	lits := ExtractForced(a)
	if string(lits[2]) != "xy" {
		t.Errorf("rule 2 literal = %q, want %q", lits[2], "xy")
	}
	if string(lits[11]) != "pq" {
		t.Errorf("rule 11 literal = %q, want %q", lits[11], "pq")
	}
}

func TestCompilePrefilterEmptyAlwaysMayMatch(t *testing.T) {
	pf, err := CompilePrefilter(nil)
	if err != nil {
		t.Fatalf("CompilePrefilter: %v", err)
	}
	if !pf.MayMatch([]byte("anything")) {
		t.Error("an empty prefilter must never rule out a match")
	}
}

func TestCompilePrefilterMatchesForcedLiteral(t *testing.T) {
	a := buildChain()
	lits := ExtractForced(a)
	pf, err := CompilePrefilter(lits)
	if err != nil {
		t.Fatalf("CompilePrefilter: %v", err)
	}
	if !pf.MayMatch([]byte("xxabcxx")) {
		t.Error("expected MayMatch to find the embedded literal")
	}
	if pf.MayMatch([]byte("zzzzzzz")) {
		t.Error("expected MayMatch to reject a payload without the literal")
	}
}
