package evalerr

// Stats is the error statistics record of spec section 3: a per-(pcap, run)
// aggregate of target/reduced acceptance and classification counters. All
// fields are additive; Aggregate sums them componentwise.
type Stats struct {
	Total uint64

	AcceptedTarget  uint64
	AcceptedReduced uint64

	PerFinalTarget  []uint64 // indexed by the target automaton's dense index
	PerFinalReduced []uint64 // indexed by the reduced automaton's dense index

	FalsePositiveAcceptance uint64
	CorrectClassification   uint64
	WrongClassification     uint64
}

// NewStats allocates a zeroed Stats sized for a target with numTargetFinals
// dense indices and a reduced automaton with numReducedFinals.
func NewStats(numTargetFinals, numReducedFinals int) Stats {
	return Stats{
		PerFinalTarget:  make([]uint64, numTargetFinals),
		PerFinalReduced: make([]uint64, numReducedFinals),
	}
}

// Aggregate sums s and other componentwise, per spec section 3's
// additivity requirement, and returns the result. Both PerFinal slices
// must have matching lengths; otherwise it fails with ShapeMismatch.
func (s Stats) Aggregate(other Stats) (Stats, error) {
	if len(s.PerFinalTarget) != len(other.PerFinalTarget) {
		return Stats{}, &ShapeMismatch{Len1: len(s.PerFinalTarget), Len2: len(other.PerFinalTarget)}
	}
	if len(s.PerFinalReduced) != len(other.PerFinalReduced) {
		return Stats{}, &ShapeMismatch{Len1: len(s.PerFinalReduced), Len2: len(other.PerFinalReduced)}
	}

	out := Stats{
		Total:                   s.Total + other.Total,
		AcceptedTarget:          s.AcceptedTarget + other.AcceptedTarget,
		AcceptedReduced:         s.AcceptedReduced + other.AcceptedReduced,
		FalsePositiveAcceptance: s.FalsePositiveAcceptance + other.FalsePositiveAcceptance,
		CorrectClassification:   s.CorrectClassification + other.CorrectClassification,
		WrongClassification:     s.WrongClassification + other.WrongClassification,
		PerFinalTarget:          make([]uint64, len(s.PerFinalTarget)),
		PerFinalReduced:         make([]uint64, len(s.PerFinalReduced)),
	}
	for i := range out.PerFinalTarget {
		out.PerFinalTarget[i] = s.PerFinalTarget[i] + other.PerFinalTarget[i]
	}
	for i := range out.PerFinalReduced {
		out.PerFinalReduced[i] = s.PerFinalReduced[i] + other.PerFinalReduced[i]
	}
	return out, nil
}

// PacketError is the derived report metric pe = (accepted_reduced -
// accepted_target) / total of spec section 4.8.
func (s Stats) PacketError() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(int64(s.AcceptedReduced)-int64(s.AcceptedTarget)) / float64(s.Total)
}

// ClassificationError is the derived report metric ce =
// wrong_classification / total.
func (s Stats) ClassificationError() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WrongClassification) / float64(s.Total)
}

// PositiveRate is the derived report metric pp = correct_classification /
// (correct + wrong).
func (s Stats) PositiveRate() float64 {
	denom := s.CorrectClassification + s.WrongClassification
	if denom == 0 {
		return 0
	}
	return float64(s.CorrectClassification) / float64(denom)
}
