package layout

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"
)

// ErrorKind enumerates layout calculation failures.
type ErrorKind uint8

const (
	// ErrRecursiveType indicates a named struct that contains itself by value.
	ErrRecursiveType ErrorKind = iota + 1
	// ErrUnsupportedType indicates a type with no in-memory layout (void,
	// functions, opaque structs, metadata).
	ErrUnsupportedType
	// ErrLengthConversion indicates an array or vector length that does not
	// fit the host int.
	ErrLengthConversion
)

// Error is a layout calculation failure for a specific IR type.
type Error struct {
	Kind  ErrorKind
	Type  types.Type
	Cycle []string // for ErrRecursiveType
	Err   error    // for ErrLengthConversion
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrRecursiveType:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive struct type has infinite size (%v)", e.Type)
		}
		return fmt.Sprintf("recursive struct type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
	case ErrUnsupportedType:
		return fmt.Sprintf("type %v has no in-memory layout", e.Type)
	case ErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("length conversion error (%v): %v", e.Type, e.Err)
		}
		return fmt.Sprintf("length conversion error (%v)", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d (%v)", e.Kind, e.Type)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
