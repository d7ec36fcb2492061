// Command lmin runs the lightweight NFA minimization pre-pass (spec
// section 4.1): collapsing self-looping sink successors of q0 into one
// representative, and optionally fusing final states, before an
// automaton is handed to the reducer.
package main

import (
	"os"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"

	"github.com/sigreduce/nfareduce/automaton"
)

type options struct {
	inPath      string
	outPath     string
	mergeFinals bool
	verbose     bool
}

func parseFlags() *options {
	opts := &options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription("Lightweight NFA minimization: merge sink-loop successors of q0 and optionally fuse final states.")

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.inPath, "in", "i", "", "path to the input .fa automaton file"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.outPath, "out", "o", "", "path to write the minimized automaton"),
	)
	flagSet.CreateGroup("run", "Run",
		flagSet.BoolVarP(&opts.mergeFinals, "merge-finals", "f", false, "fuse all final states into one instead of per-rule-subtree"),
		flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "display verbose output"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not read flags: %s", err)
	}
	if opts.inPath == "" || opts.outPath == "" {
		gologger.Fatal().Msg("-in and -out are required")
	}
	return opts
}

func main() {
	opts := parseFlags()
	os.Exit(run(opts))
}

func run(opts *options) int {
	f, err := os.Open(opts.inPath)
	if err != nil {
		gologger.Error().Msgf("cannot open %s: %v", opts.inPath, err)
		return 1
	}
	a, err := automaton.Parse(f)
	f.Close()
	if err != nil {
		gologger.Error().Msgf("parsing %s: %v", opts.inPath, err)
		return 1
	}

	before := a.NumStates()
	if err := a.MergeSLStates(); err != nil {
		gologger.Error().Msgf("merging sink-loop states: %v", err)
		return 1
	}
	if err := a.MergeFinalStates(opts.mergeFinals); err != nil {
		gologger.Error().Msgf("merging final states: %v", err)
		return 1
	}
	if opts.verbose {
		gologger.Info().Msgf("|Q|: %d -> %d", before, a.NumStates())
	}

	out, err := os.Create(opts.outPath)
	if err != nil {
		gologger.Error().Msgf("cannot create %s: %v", opts.outPath, err)
		return 1
	}
	defer out.Close()

	if err := automaton.Print(out, a); err != nil {
		gologger.Error().Msgf("writing %s: %v", opts.outPath, err)
		return 1
	}
	return 0
}
