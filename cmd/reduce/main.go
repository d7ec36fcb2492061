// Command reduce drives the reducer orchestrator (C7) over a target
// automaton and training traffic, writing the reduced automaton to stdout
// or a file (spec section 6).
package main

import (
	"os"
	"strconv"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/capture"
	"github.com/sigreduce/nfareduce/freq"
	"github.com/sigreduce/nfareduce/reduce"
)

type options struct {
	nfaPath     string
	trainPath   string
	outPath     string
	ratio       float64
	iterations  int
	tau         float64
	mergeCap    float64
	hasMergeCap bool
	useFreqFile bool
}

func parseFlags() *options {
	opts := &options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription("Reduce an NFA's state count against training traffic (spec section 4.7).")

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.nfaPath, "nfa", "n", "", "path to the target .fa automaton file"),
		flagSet.StringVarP(&opts.trainPath, "train", "t", "", "training pcap, or a state-frequency file with -s"),
		flagSet.BoolVarP(&opts.useFreqFile, "freq-file", "s", false, "read -train as a pre-computed state-frequency file instead of a pcap"),
	)
	flagSet.CreateGroup("reduction", "Reduction",
		flagSet.IntVar(&opts.iterations, "i", 0, "iterations of merge before the final prune (0 selects single-pass prune)"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.outPath, "out", "o", "", "output path for the reduced automaton (default stdout)"),
	)

	var ratioStr, tauStr, capStr string
	flagSet.CreateGroup("thresholds", "Thresholds",
		flagSet.StringVarP(&ratioStr, "ratio", "p", "0.5", "target reduction ratio rho in (0, 1]"),
		flagSet.StringVarP(&tauStr, "threshold", "m", "0.9", "merge threshold tau in [0.25, 1]"),
		flagSet.StringVarP(&capStr, "cap", "c", "", "optional merge upper-frequency cap kappa in (0, 1]"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not read flags: %s", err)
	}
	if opts.nfaPath == "" || opts.trainPath == "" {
		gologger.Fatal().Msg("-nfa and -train are required")
	}

	opts.ratio = mustParseFloat(ratioStr, "ratio")
	opts.tau = mustParseFloat(tauStr, "threshold")
	if capStr != "" {
		opts.mergeCap = mustParseFloat(capStr, "cap")
		opts.hasMergeCap = true
	}
	return opts
}

func mustParseFloat(s, name string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		gologger.Fatal().Msgf("invalid -%s %q: %v", name, s, err)
	}
	return f
}

func main() {
	opts := parseFlags()
	os.Exit(run(opts))
}

func run(opts *options) int {
	f, err := os.Open(opts.nfaPath)
	if err != nil {
		gologger.Error().Msgf("cannot open %s: %v", opts.nfaPath, err)
		return 1
	}
	sym, err := automaton.Parse(f)
	f.Close()
	if err != nil {
		gologger.Error().Msgf("parsing %s: %v", opts.nfaPath, err)
		return 1
	}

	var cap *float64
	if opts.hasMergeCap {
		cap = &opts.mergeCap
	}

	var predictedError float64
	var merged int

	if opts.useFreqFile {
		ff, err := os.Open(opts.trainPath)
		if err != nil {
			gologger.Error().Msgf("cannot open %s: %v", opts.trainPath, err)
			return 1
		}
		known := sym.States()
		lm, err := freq.Read(ff, known)
		ff.Close()
		if err != nil {
			gologger.Error().Msgf("reading %s: %v", opts.trainPath, err)
			return 1
		}
		predictedError, err = reduce.PruneRatio(sym, lm, opts.ratio)
		if err != nil {
			gologger.Error().Msgf("pruning: %v", err)
			return 1
		}
	} else {
		factory := func() (reduce.Source, error) { return capture.OpenPcap(opts.trainPath) }
		predictedError, merged, err = reduce.Reduce(sym, factory, opts.ratio, opts.iterations, opts.tau, cap)
		if err != nil {
			gologger.Error().Msgf("reducing: %v", err)
			return 1
		}
	}

	gologger.Info().Msgf("predicted error %.6f, %d states merged, |Q|=%d", predictedError, merged, sym.NumStates())

	out := os.Stdout
	if opts.outPath != "" {
		created, err := os.Create(opts.outPath)
		if err != nil {
			gologger.Error().Msgf("cannot create %s: %v", opts.outPath, err)
			return 1
		}
		defer created.Close()
		out = created
	}
	if err := automaton.Print(out, sym); err != nil {
		gologger.Error().Msgf("writing reduced automaton: %v", err)
		return 1
	}
	return 0
}
