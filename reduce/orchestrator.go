package reduce

import (
	"io"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/automaton/dense"
	"github.com/sigreduce/nfareduce/freq"
)

// Source is the minimal capture-source surface the orchestrator needs: a
// payload iterator (satisfying freq.PayloadSource) that can be closed.
// capture.Source satisfies it.
type Source interface {
	freq.PayloadSource
	Close() error
}

// SourceFactory opens a fresh training source. The single-pass mode calls
// it once; the iterative mode calls it twice, once for the counting pass
// and once for the single source that all windows read from in sequence.
type SourceFactory func() (Source, error)

// Prune runs the orchestrator's single-pass prune mode (spec section
// 4.7): compute phi once over the full training source, then prune m with
// ratio. It returns the predicted error; merged is always 0 in this mode.
func Prune(m *automaton.Automaton, newSource SourceFactory, ratio float64) (predictedError float64, merged int, err error) {
	d := dense.Build(m)
	phiLabel, err := labelOnce(d, newSource, 0)
	if err != nil {
		return 0, 0, err
	}
	predictedError, err = PruneRatio(m, phiLabel, ratio)
	return predictedError, 0, err
}

// IterativeMergePrune runs the orchestrator's iterative merge-then-prune
// mode (spec section 4.7): the training source is opened once and divided
// into `iterations` sequential, non-overlapping windows of count =
// total/iterations packets each, where total is the source's full packet
// count measured by a preliminary counting pass. Each window's
// frequencies are measured on the automaton as it stands at that window's
// start, read from the single persistent source (not reopened), and one
// merge pass is applied. The last window's frequency map is reused for
// the final prune rather than recomputed, mirroring the ground-truth
// reducer, which prunes directly off the final iteration's state
// frequencies, filtering out entries for states the merges already
// removed. The final prune runs with the ratio adjusted by how much
// merging already shrank |Q| (rho' = rho * |Q|_orig / |Q|_now; spec
// section 9's resolution of the two candidate compensation formulas).
func IterativeMergePrune(
	m *automaton.Automaton,
	newSource SourceFactory,
	ratio float64,
	iterations int,
	tau float64,
	cap *float64,
) (predictedError float64, totalMerged int, err error) {
	origSize := m.NumStates()

	total, err := countPackets(newSource)
	if err != nil {
		return 0, 0, err
	}
	windowCount := total / uint64(iterations)
	if windowCount == 0 {
		return 0, 0, &InsufficientTraining{Total: total, Iterations: iterations}
	}

	src, err := newSource()
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	var lastPhi freq.LabelMap
	for i := 0; i < iterations; i++ {
		d := dense.Build(m)
		phiMap, _, lerr := freq.Label(d, src, windowCount)
		if lerr != nil {
			return 0, totalMerged, lerr
		}
		lastPhi = freq.ToLabelMap(d, phiMap)

		merged, merr := Merge(m, lastPhi, tau, cap)
		if merr != nil {
			return 0, totalMerged, merr
		}
		totalMerged += merged
	}

	nowSize := m.NumStates()
	adjustedRatio := ratio
	if nowSize > 0 {
		adjustedRatio = ratio * float64(origSize) / float64(nowSize)
	}
	predictedError, err = PruneRatio(m, lastPhi, adjustedRatio)
	return predictedError, totalMerged, err
}

// Reduce is the single CLI-facing orchestrator entry point covering both
// modes of spec section 4.7: iterations <= 0 selects single-pass prune;
// iterations > 0 selects iterative merge-then-prune, with merge threshold
// tau and optional cap, before the final adjusted-ratio prune.
func Reduce(
	m *automaton.Automaton,
	newSource SourceFactory,
	ratio float64,
	iterations int,
	tau float64,
	cap *float64,
) (predictedError float64, merged int, err error) {
	if iterations <= 0 {
		return Prune(m, newSource, ratio)
	}
	return IterativeMergePrune(m, newSource, ratio, iterations, tau, cap)
}

// countPackets opens a fresh source solely to measure how many packets it
// yields, then closes it. The iterative mode needs this count up front to
// divide the training source into equal-sized windows.
func countPackets(newSource SourceFactory) (uint64, error) {
	src, err := newSource()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	var total uint64
	for {
		_, err := src.Next()
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
		total++
	}
}

// labelOnce opens a fresh source, labels d against it up to limit packets
// (0 meaning unbounded), closes the source, and returns the result
// remapped to symbolic labels for use by PruneRatio/Merge.
func labelOnce(d *dense.Dense, newSource SourceFactory, limit uint64) (freq.LabelMap, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	m, _, err := freq.Label(d, src, limit)
	if err != nil {
		return nil, err
	}
	return freq.ToLabelMap(d, m), nil
}
