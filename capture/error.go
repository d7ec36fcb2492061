// Package capture implements the byte-payload source (C1) of spec section
// 4.3 and the header-skip rule of spec section 6: stripping Ethernet,
// VLAN, IPv4/IPv6, and transport headers from a captured frame to yield
// the raw payload bytes the automaton engine operates on.
package capture

import "fmt"

// BadCaptureFile is returned by OpenPcap when the file cannot be opened or
// its magic is unrecognized.
type BadCaptureFile struct {
	Path  string
	Cause error
}

func (e *BadCaptureFile) Error() string {
	return fmt.Sprintf("capture: cannot open %q: %v", e.Path, e.Cause)
}

func (e *BadCaptureFile) Unwrap() error {
	return e.Cause
}
