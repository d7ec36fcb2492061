// Package report formats an evalerr.Stats record for the nfa-eval CLI
// (C11): a CSV row for machine consumption and a human-readable summary
// block carrying the derived packet error, classification error, and
// positive rate of spec section 4.8.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sigreduce/nfareduce/evalerr"
)

var csvHeader = []string{
	"total",
	"accepted_target",
	"accepted_reduced",
	"false_positive_acceptance",
	"correct_classification",
	"wrong_classification",
	"packet_error",
	"classification_error",
	"positive_rate",
}

// WriteCSV emits a header row followed by a single data row for s.
func WriteCSV(w io.Writer, s evalerr.Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	row := []string{
		fmt.Sprintf("%d", s.Total),
		fmt.Sprintf("%d", s.AcceptedTarget),
		fmt.Sprintf("%d", s.AcceptedReduced),
		fmt.Sprintf("%d", s.FalsePositiveAcceptance),
		fmt.Sprintf("%d", s.CorrectClassification),
		fmt.Sprintf("%d", s.WrongClassification),
		fmt.Sprintf("%.6f", s.PacketError()),
		fmt.Sprintf("%.6f", s.ClassificationError()),
		fmt.Sprintf("%.6f", s.PositiveRate()),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary emits the human-readable block: totals plus the derived
// packet error, classification error, and positive rate of spec section
// 4.8's "Derived reports".
func WriteSummary(w io.Writer, s evalerr.Stats) error {
	_, err := fmt.Fprintf(w, ""+
		"packets processed:        %d\n"+
		"accepted by target:       %d\n"+
		"accepted by reduced:      %d\n"+
		"false positive accepts:   %d\n"+
		"correct classifications:  %d\n"+
		"wrong classifications:    %d\n"+
		"packet error:             %.4f\n"+
		"classification error:     %.4f\n"+
		"positive rate:            %.4f\n",
		s.Total, s.AcceptedTarget, s.AcceptedReduced,
		s.FalsePositiveAcceptance, s.CorrectClassification, s.WrongClassification,
		s.PacketError(), s.ClassificationError(), s.PositiveRate(),
	)
	return err
}
