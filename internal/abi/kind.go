// Package abi pins down the contract between compiled ember modules and the
// host runtime: primitive kind codes, kernel signature flags, metadata channel
// names and the synthesized symbol names. Everything here is ABI: values are
// append-only and never renumbered, because the host ships separately from the
// compiler and reads modules produced by older releases.
package abi

import "strconv"

// KindCode identifies a primitive value kind in export metadata.
type KindCode int8

// KindUser marks a record field whose type is not a primitive kind (a nested
// record, pointer, matrix or array). It sits outside the primitive code space
// so a reader can always tell the two apart.
const KindUser KindCode = -1

const (
	KindFloat32 KindCode = iota
	KindFloat64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindBool
	KindUnorm565
	KindUnorm5551
	KindUnorm4444
	KindMat2
	KindMat3
	KindMat4
	// Object handle kinds. Values of these kinds are reference-counted by the
	// host; every exported variable of an object kind gets an entry in the
	// object-slot channel.
	KindElement
	KindLayout
	KindBuffer
	KindSampler
	KindScript
	KindStream
)

var kindNames = [...]string{
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindUint8:     "uint8",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint64:    "uint64",
	KindBool:      "bool",
	KindUnorm565:  "unorm565",
	KindUnorm5551: "unorm5551",
	KindUnorm4444: "unorm4444",
	KindMat2:      "mat2",
	KindMat3:      "mat3",
	KindMat4:      "mat4",
	KindElement:   "element",
	KindLayout:    "layout",
	KindBuffer:    "buffer",
	KindSampler:   "sampler",
	KindScript:    "script",
	KindStream:    "stream",
}

func (k KindCode) String() string {
	if k == KindUser {
		return "user"
	}
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindFromName resolves a manifest type name to its kind code.
func KindFromName(name string) (KindCode, bool) {
	for code, n := range kindNames {
		if n == name {
			return KindCode(code), true
		}
	}
	return KindUser, false
}

// Encoding returns the decimal form written into metadata rows.
func (k KindCode) Encoding() string {
	return strconv.Itoa(int(k))
}

// KindFromEncoding parses the decimal form back into a kind code.
func KindFromEncoding(s string) (KindCode, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= len(kindNames) {
		return KindUser, false
	}
	return KindCode(n), true
}

// IsObject reports whether the kind is a reference-counted handle.
func (k KindCode) IsObject() bool {
	return k >= KindElement && k <= KindStream
}

// IsMatrix reports whether the kind is one of the square matrix kinds.
func (k KindCode) IsMatrix() bool {
	return k >= KindMat2 && k <= KindMat4
}

// MatrixKind maps a dimension (2..4) to its kind code. The encoding is
// positional: mat2 is the base, each extra dimension adds one.
func MatrixKind(dim int) KindCode {
	return KindMat2 + KindCode(dim-2)
}

// MatrixDim recovers the dimension of a matrix kind.
func (k KindCode) MatrixDim() (int, bool) {
	if !k.IsMatrix() {
		return 0, false
	}
	return int(k-KindMat2) + 2, true
}
