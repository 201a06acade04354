package export

import (
	"fmt"

	"emberlink/internal/abi"
)

// Type is the declared type of an exported entity as the analysis phase saw
// it. It is a closed set: Primitive, Pointer, Matrix, Vector, Array and
// *Record are the only implementations, and consumers switch over exactly
// those six. Adding a variant means visiting every switch.
type Type interface {
	// TypeName returns the spelling used in metadata encodings and manifests.
	TypeName() string
	isType()
}

// Primitive is a scalar of a fixed kind, including the object handle kinds.
type Primitive struct {
	Kind abi.KindCode
}

// Pointer is a raw pointer to another exported type.
type Pointer struct {
	Pointee Type
}

// Matrix is a square float32 matrix with Dim rows and columns (2..4).
type Matrix struct {
	Dim int
}

// Vector is a short SIMD vector of a primitive element kind.
type Vector struct {
	Elem  abi.KindCode
	Lanes int
}

// Array is a constant-length array.
type Array struct {
	Elem Type
	Len  int
}

func (Primitive) isType() {}
func (Pointer) isType()   {}
func (Matrix) isType()    {}
func (Vector) isType()    {}
func (Array) isType()     {}
func (*Record) isType()   {}

func (t Primitive) TypeName() string {
	return t.Kind.String()
}

func (t Pointer) TypeName() string {
	return "*" + t.Pointee.TypeName()
}

func (t Matrix) TypeName() string {
	return abi.MatrixKind(t.Dim).String()
}

func (t Vector) TypeName() string {
	return fmt.Sprintf("%sx%d", t.Elem, t.Lanes)
}

func (t Array) TypeName() string {
	return fmt.Sprintf("[%d]%s", t.Len, t.Elem.TypeName())
}

func (t *Record) TypeName() string {
	return t.Name
}

// KindOf returns the primitive kind a type encodes as in field rows. Vectors
// carry their element kind, everything composite is KindUser.
func KindOf(t Type) abi.KindCode {
	switch t := t.(type) {
	case Primitive:
		return t.Kind
	case Vector:
		return t.Elem
	case Pointer:
		return abi.KindUser
	case Matrix:
		return abi.KindUser
	case Array:
		return abi.KindUser
	case *Record:
		return abi.KindUser
	}
	panic(fmt.Sprintf("export: unhandled type %T", t))
}
