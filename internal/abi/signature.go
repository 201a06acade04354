package abi

import (
	"strconv"
	"strings"
)

// Signature is the packed kernel signature the analysis phase computes from a
// kernel declaration. The finalizer treats it as opaque and only serializes
// it; the flag set below exists so the compiler and the host agree on the
// bit meanings.
type Signature uint32

const (
	SigIn       Signature = 1 << iota // kernel reads an input element
	SigOut                            // kernel writes an output element
	SigUserData                       // kernel takes a user data pointer
	SigX                              // kernel receives the x coordinate
	SigY                              // kernel receives the y coordinate
)

var sigNames = []struct {
	flag Signature
	name string
}{
	{SigIn, "in"},
	{SigOut, "out"},
	{SigUserData, "userdata"},
	{SigX, "x"},
	{SigY, "y"},
}

// Has reports whether every bit of f is set.
func (s Signature) Has(f Signature) bool {
	return s&f == f
}

// Encoding returns the decimal form written into the kernel channel.
func (s Signature) Encoding() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSignature parses the decimal channel form.
func ParseSignature(text string) (Signature, error) {
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, err
	}
	return Signature(n), nil
}

// String renders the known flags, e.g. "in|out|x". Unknown high bits are
// preserved in hex so future flag sets stay inspectable.
func (s Signature) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	rest := s
	for _, e := range sigNames {
		if s.Has(e.flag) {
			parts = append(parts, e.name)
			rest &^= e.flag
		}
	}
	if rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "|")
}
