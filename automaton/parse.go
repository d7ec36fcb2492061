package automaton

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Parse reads the .fa text format described in spec section 6:
// line 1 is the initial state's label; subsequent lines of the shape
// "p q 0xHH" encode a transition; the first line that does not match that
// shape begins the final-state block, one label per remaining non-empty
// line.
func Parse(r io.Reader) (*Automaton, error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0

	nextLine := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				return line, true
			}
		}
		return "", false
	}

	first, ok := nextLine()
	if !ok {
		return nil, &Error{Kind: BadSyntax, Message: "empty input, expected initial state on line 1"}
	}
	initLabel, err := strconv.ParseUint(first, 10, 64)
	if err != nil {
		return nil, &Error{Kind: BadSyntax, Message: "initial state is not a non-negative integer", Line: lineNo, Cause: err}
	}
	a := New(State(initLabel))

	var pendingFinal string
	havePending := false
	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		p, q, b, isTrans, parseErr := parseTransitionLine(line)
		if parseErr != nil {
			return nil, &Error{Kind: BadSyntax, Message: parseErr.Error(), Line: lineNo}
		}
		if !isTrans {
			pendingFinal = line
			havePending = true
			break
		}
		a.AddTransition(State(p), b, State(q))
	}

	addFinalLine := func(line string) error {
		label, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return &Error{Kind: BadSyntax, Message: "final state is not a non-negative integer", Line: lineNo, Cause: err}
		}
		a.AddFinal(State(label))
		return nil
	}

	if havePending {
		if err := addFinalLine(pendingFinal); err != nil {
			return nil, err
		}
	}
	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		if err := addFinalLine(line); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &Error{Kind: BadSyntax, Message: "reading input", Cause: err}
	}

	return a, nil
}

// parseTransitionLine attempts to parse line as "p q 0xHH". isTrans is
// false (with err == nil) when the line has a different shape, signaling
// the caller to treat it as the start of the final-state block.
func parseTransitionLine(line string) (p, q uint64, b byte, isTrans bool, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, 0, 0, false, nil
	}
	p, errP := strconv.ParseUint(fields[0], 10, 64)
	q, errQ := strconv.ParseUint(fields[1], 10, 64)
	if errP != nil || errQ != nil {
		return 0, 0, 0, false, nil
	}
	hex := fields[2]
	if !strings.HasPrefix(hex, "0x") && !strings.HasPrefix(hex, "0X") {
		return 0, 0, 0, false, nil
	}
	digits := hex[2:]
	if len(digits) != 2 {
		return 0, 0, 0, false, fmt.Errorf("hex literal %q must have exactly two digits", hex)
	}
	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, 0, 0, false, fmt.Errorf("hex literal %q is not valid hex", hex)
	}
	if v > 0xFF {
		return 0, 0, 0, false, fmt.Errorf("hex literal %q out of byte range", hex)
	}
	return p, q, byte(v), true, nil
}

// Print writes a serves in the .fa format: q0, then every transition in a
// deterministic traversal of delta (states ascending, then byte ascending,
// then destination ascending), then every final state ascending. The
// format round-trips Parse(Print(a)) == a modulo that the original
// transition/final ordering need not match.
func Print(w io.Writer, a *Automaton) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, a.initial); err != nil {
		return err
	}

	sources := sortedStates(a.states)
	for _, p := range sources {
		byDst := a.trans[p]
		if byDst == nil {
			continue
		}
		bytes := make([]int, 0, len(byDst))
		for b := range byDst {
			bytes = append(bytes, int(b))
		}
		sort.Ints(bytes)
		for _, bi := range bytes {
			b := byte(bi)
			dsts := sortedStates(byDst[b])
			for _, q := range dsts {
				if _, err := fmt.Fprintf(bw, "%d %d 0x%02x\n", p, q, b); err != nil {
					return err
				}
			}
		}
	}

	for _, f := range sortedStates(a.final) {
		if _, err := fmt.Fprintln(bw, f); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// sortedStates returns the keys of a state set in ascending label order,
// giving Print a deterministic traversal.
func sortedStates(set map[State]struct{}) []State {
	out := make([]State, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
