package export

import (
	"emberlink/internal/abi"
	"emberlink/internal/source"
)

// Unit holds the validated export surface of one compiled translation unit.
// The analysis phase produced and ordered everything in it; the finalizer
// treats a Unit as read-only and emission order follows slice order exactly.
// Object slot indices in particular are positional: reordering Vars changes
// the ABI of the compiled module.
type Unit struct {
	Name string
	// Version is the format version the unit declared, or
	// abi.FormatVersionNone when the version pragma was absent.
	Version int
	// Exports marks the unit as export-bearing. When false the finalizer
	// emits no export channels at all.
	Exports bool
	// Span points at the unit declaration in the manifest for diagnostics.
	Span source.Span

	Pragmas []Pragma
	Vars    []*Var
	Funcs   []*Func
	Kernels []*Kernel
	Records []*Record
}

// Pragma is one front-end pragma in declaration order.
type Pragma struct {
	Name  string
	Value string
}

// Var is an exported module-level variable.
type Var struct {
	Name string
	Type Type
}

// IsObject reports whether the variable holds a reference-counted handle and
// therefore occupies a row in the object-slot channel.
func (v *Var) IsObject() bool {
	p, ok := v.Type.(Primitive)
	return ok && p.Kind.IsObject()
}

// Func is an exported invokable function. Params are in declaration order;
// Return is nil for void.
type Func struct {
	Name   string
	Params []Type
	Return Type
}

// HasParams reports whether the function needs an invoke adapter.
func (f *Func) HasParams() bool {
	return len(f.Params) > 0
}

// Kernel is an exported per-element kernel. The signature is computed by the
// analysis phase and passed through opaquely.
type Kernel struct {
	Name      string
	Signature abi.Signature
}

// Record is an exported aggregate type. Field order is authoritative: it is
// the memory layout of any parameter block or element built from the record.
type Record struct {
	Name   string
	Fields []Field
}

// Field is one record member.
type Field struct {
	Name string
	Type Type
}

// KindCode returns the code written into the record's field channel.
func (f Field) KindCode() abi.KindCode {
	return KindOf(f.Type)
}
