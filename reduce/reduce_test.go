package reduce

import (
	"io"
	"testing"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/automaton/dense"
	"github.com/sigreduce/nfareduce/freq"
)

type sliceSource struct {
	payloads [][]byte
	i        int
}

func (s *sliceSource) Next() ([]byte, error) {
	if s.i >= len(s.payloads) {
		return nil, io.EOF
	}
	p := s.payloads[s.i]
	s.i++
	return p, nil
}

func (s *sliceSource) Close() error { return nil }

func buildS1() *automaton.Automaton {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 0)
	a.AddTransition(0, 'b', 1)
	a.AddFinal(1)
	return a
}

// TestPruneTrivialS3 mirrors spec section 8 scenario S3: with only state 1
// (final) and state 0 (initial) present, there are no prunable candidates.
func TestPruneTrivialS3(t *testing.T) {
	a := buildS1()
	phi := freq.LabelMap{0: 3, 1: 2}

	predictedError, err := PruneRatio(a, phi, 0.5)
	if err != nil {
		t.Fatalf("PruneRatio: %v", err)
	}
	if predictedError != 0 {
		t.Errorf("predicted error should be 0 with no candidates, got %f", predictedError)
	}
	if a.NumStates() != 2 {
		t.Errorf("automaton should be unchanged, got %d states", a.NumStates())
	}
}

func TestPruneRejectsMissingFrequency(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'a', 2)
	a.AddFinal(2)
	phi := freq.LabelMap{0: 5, 2: 5} // state 1 missing

	_, err := PruneRatio(a, phi, 0.5)
	if err == nil {
		t.Fatal("expected OutOfRange for a candidate missing from phi")
	}
	if _, ok := err.(*OutOfRange); !ok {
		t.Errorf("expected *OutOfRange, got %T", err)
	}
}

func TestPruneRemovesLowestFrequencyCandidate(t *testing.T) {
	// 0 -a-> 1 -a-> 2 -b-> 3(final); 1 has far less traffic than 2.
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'a', 2)
	a.AddTransition(2, 'b', 3)
	a.AddFinal(3)
	phi := freq.LabelMap{0: 10, 1: 1, 2: 9, 3: 8}

	predictedError, err := PruneRatio(a, phi, 0.5)
	if err != nil {
		t.Fatalf("PruneRatio: %v", err)
	}
	if a.HasState(1) {
		t.Error("state 1 (lowest frequency, non-final, non-initial) should have been pruned")
	}
	if predictedError <= 0 {
		t.Error("expected nonzero predicted error from pruning")
	}
}

// TestMergeChainS4 mirrors spec section 8 scenario S4: chain
// 0-a->1-a->2-b->3(final), uniform frequency 3, tau=0.99. State 2's only
// successor (3) is final, so 2 is skipped by the "no successor is final"
// guard; only 1 merges into 0.
func TestMergeChainS4(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'a', 2)
	a.AddTransition(2, 'b', 3)
	a.AddFinal(3)
	phi := freq.LabelMap{0: 3, 1: 3, 2: 3, 3: 3}

	merged, err := Merge(a, phi, 0.99, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged != 1 {
		t.Errorf("expected exactly 1 merge (state 1 into 0), got %d", merged)
	}
	if a.HasState(1) {
		t.Error("state 1 should have been merged away")
	}
	if !a.HasState(2) {
		t.Error("state 2 should survive (its successor 3 is final)")
	}

	d := dense.Build(a)
	for _, word := range []string{"aab", "ab", "aaab"} {
		if !d.Accept([]byte(word)) {
			t.Errorf("reduced automaton should accept %q", word)
		}
	}
}

func TestMergeRespectsCap(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'b', 2)
	a.AddFinal(2)
	// phi[0] dominates; cap excludes it from being a merge predecessor.
	phi := freq.LabelMap{0: 100, 1: 99, 2: 0}
	cap := 0.5

	merged, err := Merge(a, phi, 0.5, &cap)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged != 0 {
		t.Errorf("expected no merges when q0 exceeds the cap, got %d", merged)
	}
}

func TestIterativeMergePruneShrinksMonotonically(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'a', 2)
	a.AddTransition(2, 'b', 3)
	a.AddFinal(3)

	factory := func() (Source, error) {
		return &sliceSource{payloads: [][]byte{[]byte("aab"), []byte("aab"), []byte("aab")}}, nil
	}

	origSize := a.NumStates()
	_, merged, err := IterativeMergePrune(a, factory, 0.5, 1, 0.9, nil)
	if err != nil {
		t.Fatalf("IterativeMergePrune: %v", err)
	}
	if a.NumStates() > origSize {
		t.Errorf("|Q| should be non-increasing, got %d from %d", a.NumStates(), origSize)
	}
	if merged < 0 {
		t.Errorf("merged count should be non-negative, got %d", merged)
	}
}

// TestIterativeMergePruneWindowsAdvanceSequentially verifies that the
// training source is opened exactly twice (once to count, once to
// replay) and that the replay pass consumes every packet exactly once in
// order, rather than reopening from byte zero for each window and
// relabeling the same leading slice repeatedly: with 6 packets and 2
// iterations, the single persistent replay source's consumed sequence
// must equal all 6 payloads in their original order.
func TestIterativeMergePruneWindowsAdvanceSequentially(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddTransition(1, 'a', 2)
	a.AddTransition(2, 'b', 3)
	a.AddFinal(3)

	payloads := [][]byte{
		[]byte("aab"), []byte("aab"), []byte("aab"),
		[]byte("ab"), []byte("ab"), []byte("ab"),
	}
	var reads [][]string
	factory := func() (Source, error) {
		return &trackingSource{payloads: payloads, reads: &reads}, nil
	}

	if _, _, err := IterativeMergePrune(a, factory, 1, 2, 0.99, nil); err != nil {
		t.Fatalf("IterativeMergePrune: %v", err)
	}

	// reads[0] is the counting-pass open; reads[1] is the single
	// persistent source used across both windows of the replay pass. A
	// reopen-per-window bug would instead produce 3 opens, with the
	// replay opens each re-reading the first 3 packets.
	if len(reads) != 2 {
		t.Fatalf("expected exactly 2 source opens (1 count + 1 persistent replay), got %d: %v", len(reads), reads)
	}
	replay := reads[1]
	if len(replay) != 6 {
		t.Fatalf("expected the replay source to consume all 6 packets across both windows, got %d: %v", len(replay), replay)
	}
	want := []string{"aab", "aab", "aab", "ab", "ab", "ab"}
	for i, w := range want {
		if replay[i] != w {
			t.Errorf("replay[%d] = %q, want %q (windows should advance sequentially, not restart)", i, replay[i], w)
		}
	}
}

func TestIterativeMergePruneInsufficientTraining(t *testing.T) {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	a.AddFinal(1)

	factory := func() (Source, error) {
		return &sliceSource{payloads: [][]byte{[]byte("a")}}, nil
	}

	_, _, err := IterativeMergePrune(a, factory, 0.5, 3, 0.9, nil)
	if err == nil {
		t.Fatal("expected InsufficientTraining when total packets < iterations")
	}
	if _, ok := err.(*InsufficientTraining); !ok {
		t.Errorf("expected *InsufficientTraining, got %T", err)
	}
}

// trackingSource wraps sliceSource semantics but records, per opened
// instance, which payloads were read through it, so a test can assert on
// the sequence of windows a multi-open caller actually consumed.
type trackingSource struct {
	payloads [][]byte
	i        int
	reads    *[][]string
	mine     []string
}

func (s *trackingSource) Next() ([]byte, error) {
	if s.i >= len(s.payloads) {
		return nil, io.EOF
	}
	p := s.payloads[s.i]
	s.i++
	s.mine = append(s.mine, string(p))
	return p, nil
}

func (s *trackingSource) Close() error {
	*s.reads = append(*s.reads, s.mine)
	return nil
}
