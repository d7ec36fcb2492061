package evalerr

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/sigreduce/nfareduce/automaton/dense"
	"github.com/sigreduce/nfareduce/capture"
	"github.com/sigreduce/nfareduce/literal"
)

// OpenFunc opens a test pcap as a capture.Source. capture.OpenPcap
// satisfies it; tests substitute an in-memory fake.
type OpenFunc func(path string) (capture.Source, error)

type options struct {
	open      OpenFunc
	prefilter *literal.Prefilter
}

// Option configures an Evaluate call.
type Option func(*options)

// WithOpenFunc overrides how Evaluate opens a pcap path. Defaults to
// capture.OpenPcap; tests substitute an in-memory fake.
func WithOpenFunc(open OpenFunc) Option {
	return func(o *options) { o.open = open }
}

// WithPrefilter supplies the C0 literal prefilter (literal.CompilePrefilter
// over the reduced automaton's rules). When set, a payload the prefilter
// proves cannot reach any of R's rules skips R's simulation entirely,
// short-circuiting m_R to 0, much as fast mode skips T's simulation when
// R rejects. Never applied in strict mode, which must run the true
// simulation on every packet.
func WithPrefilter(pf *literal.Prefilter) Option {
	return func(o *options) { o.prefilter = pf }
}

// Evaluate runs the error evaluator (C8) of spec section 4.8: it
// statically partitions paths round-robin across workers workers, and each
// worker independently replays its pcaps through target and reduced,
// accumulating a Stats record. Results are summed after every worker
// finishes (spec section 5's "concatenate after join" aggregation shape).
//
// ctx cancellation is cooperative: a worker finishes the packet it is on,
// sums its partial result, and returns nil so the other workers are not
// cancelled by errgroup's first-error propagation. strict mode runs both
// simulations on every packet and fails the whole evaluation with
// NotOverApproximation the first time a packet hits more final states of
// T than of R (which includes every packet T accepts and R rejects).
func Evaluate(ctx context.Context, target, reduced *dense.Dense, paths []string, workers int, strict bool, opts ...Option) (Stats, error) {
	if workers < 1 {
		workers = 1
	}
	o := options{open: capture.OpenPcap}
	for _, opt := range opts {
		opt(&o)
	}
	pf := o.prefilter
	if strict {
		pf = nil
	}

	buckets := make([][]string, workers)
	for i, p := range paths {
		buckets[i%workers] = append(buckets[i%workers], p)
	}

	results := make([]Stats, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			stats := NewStats(target.NumStates(), reduced.NumStates())
			for _, path := range buckets[w] {
				s, err := evaluateOne(gctx, target, reduced, path, strict, o.open, pf)
				if err != nil {
					return err
				}
				merged, err := stats.Aggregate(s)
				if err != nil {
					return err
				}
				stats = merged
			}
			results[w] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	total := NewStats(target.NumStates(), reduced.NumStates())
	for _, r := range results {
		merged, err := total.Aggregate(r)
		if err != nil {
			return Stats{}, err
		}
		total = merged
	}
	return total, nil
}

// evaluateOne replays a single pcap's packets through target and reduced
// per the per-packet contract of spec section 4.8, honoring cooperative
// cancellation between packets.
func evaluateOne(ctx context.Context, target, reduced *dense.Dense, path string, strict bool, open OpenFunc, pf *literal.Prefilter) (Stats, error) {
	src, err := open(path)
	if err != nil {
		return Stats{}, &capture.BadCaptureFile{Path: path, Cause: err}
	}
	defer src.Close()

	stats := NewStats(target.NumStates(), reduced.NumStates())

	var freqR []uint64
	var freqT []uint64
	index := 0
	for {
		select {
		case <-ctx.Done():
			return stats, nil
		default:
		}

		payload, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, err
		}
		stats.Total++

		var mR int
		if pf == nil || pf.MayMatch(payload) {
			freqR = ensureLen(freqR, reduced.NumStates())
			reduced.LabelStates(freqR, payload)
			mR = countFinalsHit(reduced, freqR)
		} else {
			freqR = ensureLen(freqR, reduced.NumStates())
		}

		var mT int
		if mR > 0 || strict {
			freqT = ensureLen(freqT, target.NumStates())
			target.LabelStates(freqT, payload)
			mT = countFinalsHit(target, freqT)
		}

		for i := 0; i < reduced.NumStates(); i++ {
			if freqR[i] > 0 && reduced.IsFinalIndex(uint32(i)) {
				stats.PerFinalReduced[i]++
			}
		}
		for i := 0; i < target.NumStates(); i++ {
			if freqT != nil && freqT[i] > 0 && target.IsFinalIndex(uint32(i)) {
				stats.PerFinalTarget[i]++
			}
		}

		if mR == mT {
			stats.CorrectClassification++
		} else {
			stats.WrongClassification++
			if strict && mT > mR {
				return stats, &NotOverApproximation{Pcap: path, Index: index}
			}
		}
		if mR > 0 && mT == 0 {
			stats.FalsePositiveAcceptance++
		}

		if mR > 0 {
			stats.AcceptedReduced++
		}
		if mT > 0 {
			stats.AcceptedTarget++
		}
		index++
	}
}

func ensureLen(buf []uint64, n int) []uint64 {
	if cap(buf) < n {
		buf = make([]uint64, n)
	} else {
		buf = buf[:n]
		for i := range buf {
			buf[i] = 0
		}
	}
	return buf
}

func countFinalsHit(d *dense.Dense, freq []uint64) int {
	count := 0
	for i := 0; i < d.NumStates(); i++ {
		if freq[i] > 0 && d.IsFinalIndex(uint32(i)) {
			count++
		}
	}
	return count
}
