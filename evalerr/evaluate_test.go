package evalerr

import (
	"context"
	"io"
	"testing"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/automaton/dense"
	"github.com/sigreduce/nfareduce/capture"
	"github.com/sigreduce/nfareduce/literal"
)

type fakeSource struct {
	payloads [][]byte
	i        int
}

func (s *fakeSource) Next() ([]byte, error) {
	if s.i >= len(s.payloads) {
		return nil, io.EOF
	}
	p := s.payloads[s.i]
	s.i++
	return p, nil
}

func (s *fakeSource) Close() error { return nil }

func fakeOpenFor(paths map[string][][]byte) OpenFunc {
	return func(path string) (capture.Source, error) {
		return &fakeSource{payloads: paths[path]}, nil
	}
}

// buildS1Target mirrors spec section 8 scenario S1: accepts strings of the
// shape a*b.
func buildS1Target() *dense.Dense {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 0)
	a.AddTransition(0, 'b', 1)
	a.AddFinal(1)
	return dense.Build(a)
}

// buildAStarReduced accepts any string starting with 'a'.
func buildAStarReduced() *dense.Dense {
	a := automaton.New(0)
	a.AddTransition(0, 'a', 1)
	for b := 0; b < 256; b++ {
		a.AddTransition(1, byte(b), 1)
	}
	a.AddFinal(1)
	return dense.Build(a)
}

// TestEvaluateFastModeS5 mirrors spec section 8 scenario S5.
func TestEvaluateFastModeS5(t *testing.T) {
	target := buildS1Target()
	reduced := buildAStarReduced()
	open := fakeOpenFor(map[string][][]byte{
		"test.pcap": {[]byte("ab"), []byte("ax"), []byte("b")},
	})

	stats, err := Evaluate(context.Background(), target, reduced, []string{"test.pcap"}, 1, false, WithOpenFunc(open))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.AcceptedTarget != 1 {
		t.Errorf("accepted_target = %d, want 1", stats.AcceptedTarget)
	}
	if stats.AcceptedReduced != 2 {
		t.Errorf("accepted_reduced = %d, want 2", stats.AcceptedReduced)
	}
	if stats.WrongClassification != 1 {
		t.Errorf("wrong_classification = %d, want 1", stats.WrongClassification)
	}
	if pe := stats.PacketError(); pe != 1.0/3.0 {
		t.Errorf("packet error = %f, want %f", pe, 1.0/3.0)
	}
}

// TestEvaluateStrictViolationS6 mirrors spec section 8 scenario S6: a
// reduced automaton that fails to over-approximate the target must raise
// NotOverApproximation in strict mode.
func TestEvaluateStrictViolationS6(t *testing.T) {
	target := buildS1Target()

	empty := automaton.New(0)
	empty.AddFinal(1) // unreachable final: R accepts nothing
	reduced := dense.Build(empty)

	open := fakeOpenFor(map[string][][]byte{
		"test.pcap": {[]byte("ab")},
	})

	_, err := Evaluate(context.Background(), target, reduced, []string{"test.pcap"}, 1, true, WithOpenFunc(open))
	if err == nil {
		t.Fatal("expected NotOverApproximation")
	}
	if _, ok := err.(*NotOverApproximation); !ok {
		t.Errorf("expected *NotOverApproximation, got %T: %v", err, err)
	}
}

// TestEvaluateWithPrefilterSkipsUnreachableRule verifies the prefilter
// short-circuit never changes the acceptance result: a payload lacking
// the reduced automaton's forced literal is correctly scored as rejected.
func TestEvaluateWithPrefilterSkipsUnreachableRule(t *testing.T) {
	targetSym := automaton.New(0)
	targetSym.AddTransition(0, 'a', 0)
	targetSym.AddTransition(0, 'b', 1)
	targetSym.AddFinal(1)
	target := dense.Build(targetSym)

	reducedSym := automaton.New(0)
	reducedSym.AddTransition(0, 'a', 1)
	reducedSym.AddTransition(1, 'b', 1)
	reducedSym.AddFinal(1)
	reduced := dense.Build(reducedSym)

	pf, err := literal.CompilePrefilter(literal.ExtractForced(reducedSym))
	if err != nil {
		t.Fatalf("CompilePrefilter: %v", err)
	}

	open := fakeOpenFor(map[string][][]byte{
		"test.pcap": {[]byte("xyz")}, // no forced literal present, no rule reachable
	})

	stats, err := Evaluate(context.Background(), target, reduced, []string{"test.pcap"}, 1, false, WithOpenFunc(open), WithPrefilter(pf))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if stats.AcceptedReduced != 0 {
		t.Errorf("accepted_reduced = %d, want 0", stats.AcceptedReduced)
	}
}

func TestStatsAggregateAssociativeCommutative(t *testing.T) {
	a := Stats{Total: 1, PerFinalTarget: []uint64{1}, PerFinalReduced: []uint64{2}}
	b := Stats{Total: 2, PerFinalTarget: []uint64{3}, PerFinalReduced: []uint64{4}}
	c := Stats{Total: 3, PerFinalTarget: []uint64{5}, PerFinalReduced: []uint64{6}}

	ab, err := a.Aggregate(b)
	if err != nil {
		t.Fatalf("a.Aggregate(b): %v", err)
	}
	abc1, err := ab.Aggregate(c)
	if err != nil {
		t.Fatalf("(a+b).Aggregate(c): %v", err)
	}

	bc, err := b.Aggregate(c)
	if err != nil {
		t.Fatalf("b.Aggregate(c): %v", err)
	}
	abc2, err := a.Aggregate(bc)
	if err != nil {
		t.Fatalf("a.Aggregate(b+c): %v", err)
	}

	if abc1.Total != abc2.Total || abc1.PerFinalTarget[0] != abc2.PerFinalTarget[0] {
		t.Errorf("aggregate is not associative: %+v vs %+v", abc1, abc2)
	}

	ba, err := b.Aggregate(a)
	if err != nil {
		t.Fatalf("b.Aggregate(a): %v", err)
	}
	if ab.Total != ba.Total || ab.PerFinalTarget[0] != ba.PerFinalTarget[0] {
		t.Errorf("aggregate is not commutative: %+v vs %+v", ab, ba)
	}
}

func TestStatsAggregateShapeMismatch(t *testing.T) {
	a := Stats{PerFinalTarget: []uint64{1}, PerFinalReduced: []uint64{1}}
	b := Stats{PerFinalTarget: []uint64{1, 2}, PerFinalReduced: []uint64{1}}

	_, err := a.Aggregate(b)
	if err == nil {
		t.Fatal("expected ShapeMismatch")
	}
	if _, ok := err.(*ShapeMismatch); !ok {
		t.Errorf("expected *ShapeMismatch, got %T", err)
	}
}
