package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"emberlink/internal/abi"
	"emberlink/internal/export"
)

// Type expression grammar, as written by the analysis phase:
//
//	expr    = "*" expr            pointer
//	        | "[" N "]" expr      constant array
//	        | name "x" lanes      vector, e.g. float32x4
//	        | "mat2".."mat4"      matrix
//	        | primitive name      e.g. float32, buffer
//	        | record name         declared in the same manifest
type unknownRecordError struct {
	Name string
}

func (e *unknownRecordError) Error() string {
	return fmt.Sprintf("undeclared record %q", e.Name)
}

func parseTypeExpr(expr string, records map[string]*export.Record) (export.Type, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, fmt.Errorf("empty type expression")
	}

	if rest, ok := strings.CutPrefix(s, "*"); ok {
		pointee, err := parseTypeExpr(rest, records)
		if err != nil {
			return nil, err
		}
		return export.Pointer{Pointee: pointee}, nil
	}

	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated array length")
		}
		n, err := strconv.Atoi(s[1:end])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad array length %q", s[1:end])
		}
		elem, err := parseTypeExpr(s[end+1:], records)
		if err != nil {
			return nil, err
		}
		return export.Array{Elem: elem, Len: n}, nil
	}

	if kind, ok := abi.KindFromName(s); ok {
		if dim, isMatrix := kind.MatrixDim(); isMatrix {
			return export.Matrix{Dim: dim}, nil
		}
		return export.Primitive{Kind: kind}, nil
	}

	if elem, lanes, ok := splitVector(s); ok {
		return export.Vector{Elem: elem, Lanes: lanes}, nil
	}

	if rec, ok := records[s]; ok {
		return rec, nil
	}
	if isRecordName(s) {
		return nil, &unknownRecordError{Name: s}
	}
	return nil, fmt.Errorf("unknown type name")
}

// splitVector recognises "<primitive>x<lanes>" with 2..4 lanes of a scalar
// element kind.
func splitVector(s string) (abi.KindCode, int, bool) {
	cut := strings.LastIndexByte(s, 'x')
	if cut <= 0 || cut == len(s)-1 {
		return abi.KindUser, 0, false
	}
	lanes, err := strconv.Atoi(s[cut+1:])
	if err != nil || lanes < 2 || lanes > 4 {
		return abi.KindUser, 0, false
	}
	elem, ok := abi.KindFromName(s[:cut])
	if !ok || elem.IsObject() || elem.IsMatrix() {
		return abi.KindUser, 0, false
	}
	return elem, lanes, true
}

// Record type names start with an upper-case letter; everything else is a
// typo in a builtin name and gets the generic error.
func isRecordName(s string) bool {
	return s[0] >= 'A' && s[0] <= 'Z'
}
