package freq

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sigreduce/nfareduce/automaton"
	"github.com/sigreduce/nfareduce/automaton/dense"
)

// BadLabelFile is returned by Read when a line references a state label
// that is not in the caller-supplied known set.
type BadLabelFile struct {
	Label automaton.State
	Line  int
}

func (e *BadLabelFile) Error() string {
	return fmt.Sprintf("state-frequency file line %d: unknown state label %d", e.Line, e.Label)
}

// LabelMap is a frequency map keyed by symbolic label, the on-disk shape
// of the state-frequency file (spec section 6), as opposed to Map which is
// keyed by dense index for fast accumulation during labeling.
type LabelMap map[automaton.State]uint64

// Write serializes m as "<label> <count>" lines, one per entry, in
// ascending label order for a deterministic, diffable file.
func Write(w io.Writer, d *dense.Dense, m Map) error {
	bw := bufio.NewWriter(w)
	for idx, count := range m {
		label := d.Label(uint32(idx))
		if _, err := fmt.Fprintf(bw, "%d %d\n", label, count); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses the state-frequency file format: lines of "<label> <count>"
// whitespace-separated; "#" starts a comment to end of line; blank lines
// are ignored. Every label must be present in known, or Read fails with
// BadLabelFile.
func Read(r io.Reader, known map[automaton.State]struct{}) (LabelMap, error) {
	out := make(LabelMap)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("state-frequency file line %d: expected \"<label> <count>\", got %q", lineNo, line)
		}
		label, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("state-frequency file line %d: invalid label: %w", lineNo, err)
		}
		count, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("state-frequency file line %d: invalid count: %w", lineNo, err)
		}
		s := automaton.State(label)
		if known != nil {
			if _, ok := known[s]; !ok {
				return nil, &BadLabelFile{Label: s, Line: lineNo}
			}
		}
		out[s] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToLabelMap converts an index-keyed Map to a label-keyed LabelMap via d.
func ToLabelMap(d *dense.Dense, m Map) LabelMap {
	out := make(LabelMap, len(m))
	for idx, count := range m {
		out[d.Label(uint32(idx))] = count
	}
	return out
}

// ToIndexMap converts a label-keyed LabelMap back to an index-keyed Map
// sized to d's state count. Labels in lm absent from d are ignored
// (Read already rejects those when given d's state set as known).
func ToIndexMap(d *dense.Dense, lm LabelMap) Map {
	m := NewMap(d)
	for label, count := range lm {
		if idx, ok := d.Index(label); ok {
			m[idx] = count
		}
	}
	return m
}
