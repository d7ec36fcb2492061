// Command freq drives the frequency labeler (C4) over a training pcap and
// dumps the resulting state-frequency file (spec section 6).
package main

import (
	"os"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/automaton/dense"
	"github.com/sigreduce/nfareduce/capture"
	"github.com/sigreduce/nfareduce/freq"
)

type options struct {
	nfaPath  string
	pcapPath string
	outPath  string
	limit    int
	verbose  bool
}

func parseFlags() *options {
	opts := &options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription("Dump a state-frequency file by replaying a training pcap through an NFA.")

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.nfaPath, "nfa", "n", "", "path to the .fa automaton file"),
		flagSet.StringVarP(&opts.pcapPath, "pcap", "r", "", "path to the training pcap file"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.outPath, "out", "o", "", "path to write the state-frequency file"),
		flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "display verbose output"),
	)
	flagSet.CreateGroup("limit", "Limit",
		flagSet.IntVar(&opts.limit, "limit", 0, "stop after this many packets (0 means unbounded)"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not read flags: %s", err)
	}
	if opts.nfaPath == "" || opts.pcapPath == "" || opts.outPath == "" {
		gologger.Fatal().Msg("-nfa, -pcap, and -out are all required")
	}
	return opts
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
	d := dense.Build(sym)

	src, err := capture.OpenPcap(opts.pcapPath)
	if err != nil {
		gologger.Error().Msgf("%v", err)
		return 1
	}
	defer src.Close()

	m, processed, err := freq.Label(d, src, uint64(opts.limit))
	if err != nil {
		gologger.Error().Msgf("labeling %s: %v", opts.pcapPath, err)
		return 1
	}
	if opts.verbose {
		gologger.Info().Msgf("processed %d packets", processed)
	}

	out, err := os.Create(opts.outPath)
	if err != nil {
		gologger.Error().Msgf("cannot create %s: %v", opts.outPath, err)
		return 1
	}
	defer out.Close()

	if err := freq.Write(out, d, m); err != nil {
		gologger.Error().Msgf("writing %s: %v", opts.outPath, err)
		return 1
	}
	return 0
}
