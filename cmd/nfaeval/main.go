// Command nfaeval drives the error evaluator (C8) over a target and
// reduced automaton, replaying test traffic and reporting the resulting
// error statistics (spec section 4.8).
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/automaton/dense"
	"github.com/sigreduce/nfareduce/evalerr"
	"github.com/sigreduce/nfareduce/literal"
	"github.com/sigreduce/nfareduce/report"
)

type options struct {
	targetPath  string
	reducedPath string
	pcaps       goflags.StringSlice
	workers     int
	strict      bool
	csv         bool
	noPrefilter bool
}

func parseFlags() *options {
	opts := &options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription("Replay test traffic through a target and reduced NFA and report classification error.")

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.targetPath, "target", "t", "", "path to the target .fa automaton file"),
		flagSet.StringVarP(&opts.reducedPath, "reduced", "r", "", "path to the reduced .fa automaton file"),
		flagSet.StringSliceVarP(&opts.pcaps, "pcap", "p", nil, "test pcap files (comma-separated, file)", goflags.FileCommaSeparatedStringSliceOptions),
	)
	flagSet.CreateGroup("run", "Run",
		flagSet.IntVar(&opts.workers, "workers", 1, "worker goroutines (pcaps are partitioned round-robin)"),
		flagSet.BoolVarP(&opts.strict, "strict", "c", false, "verify over-approximation on every packet"),
		flagSet.BoolVarP(&opts.noPrefilter, "no-prefilter", "np", false, "disable the literal prefilter fast-reject"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&opts.csv, "csv", "a", false, "write CSV instead of a human-readable summary"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not read flags: %s", err)
	}
	if opts.targetPath == "" || opts.reducedPath == "" || len(opts.pcaps) == 0 {
		gologger.Fatal().Msg("-target, -reduced, and at least one -pcap are required")
	}
	return opts
}

func main() {
	opts := parseFlags()
	os.Exit(run(opts))
}

func run(opts *options) int {
	target, err := loadDense(opts.targetPath)
	if err != nil {
		gologger.Error().Msgf("%v", err)
		return 1
	}
	reducedSym, reduced, err := loadBoth(opts.reducedPath)
	if err != nil {
		gologger.Error().Msgf("%v", err)
		return 1
	}

	var evalOpts []evalerr.Option
	if !opts.noPrefilter {
		pf, err := literal.CompilePrefilter(literal.ExtractForced(reducedSym))
		if err != nil {
			gologger.Error().Msgf("compiling literal prefilter: %v", err)
			return 1
		}
		evalOpts = append(evalOpts, evalerr.WithPrefilter(pf))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := evalerr.Evaluate(ctx, target, reduced, opts.pcaps, opts.workers, opts.strict, evalOpts...)
	if err != nil {
		if _, ok := err.(*evalerr.NotOverApproximation); ok {
			gologger.Error().Msgf("%v", err)
			return 2
		}
		gologger.Error().Msgf("%v", err)
		return 1
	}

	if opts.csv {
		if err := report.WriteCSV(os.Stdout, stats); err != nil {
			gologger.Error().Msgf("writing report: %v", err)
			return 1
		}
		return 0
	}
	if err := report.WriteSummary(os.Stdout, stats); err != nil {
		gologger.Error().Msgf("writing report: %v", err)
		return 1
	}
	return 0
}

func loadDense(path string) (*dense.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sym, err := automaton.Parse(f)
	if err != nil {
		return nil, err
	}
	return dense.Build(sym), nil
}

func loadBoth(path string) (*automaton.Automaton, *dense.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	sym, err := automaton.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	return sym, dense.Build(sym), nil
}
