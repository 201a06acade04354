// Package backend finalizes a compiled unit: it writes the export metadata
// channels the host runtime reads and synthesizes the adapter functions the
// runtime invokes when a function takes more than the single pointer the
// invocation ABI allows.
//
// The pass owns the module exclusively, runs single threaded and makes one
// pass over the export descriptors. Pragma metadata is written even for
// units that fail the version gate; export channels are not.
package backend

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"go.uber.org/zap"

	"emberlink/internal/abi"
	"emberlink/internal/diag"
	"emberlink/internal/export"
	"emberlink/internal/layout"
)

// Finalizer drives the finalize stage for one target. It is cheap to build
// and safe to reuse across units as long as they share the target.
type Finalizer struct {
	reporter diag.Reporter
	layout   *layout.Engine
	log      *zap.Logger
}

// Option configures a Finalizer.
type Option func(*Finalizer)

// WithLogger routes mismatch and progress logging to l instead of the
// package logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Finalizer) { f.log = l }
}

// New returns a Finalizer that reports user-facing problems to r and lays
// out parameter blocks for target.
func New(r diag.Reporter, target layout.Target, opts ...Option) *Finalizer {
	f := &Finalizer{
		reporter: r,
		layout:   layout.New(target),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = Logger()
	}
	return f
}

// Finalize annotates m with the export metadata for unit and synthesizes
// the invoke adapters. It either completes in full or stops at the gate
// with ErrRejected; there is no partial export state in between.
func (f *Finalizer) Finalize(unit *export.Unit, m *ir.Module) error {
	ectx := newEmitContext(m)
	f.emitPragmas(ectx, unit)
	if !unit.Exports {
		return nil
	}
	if !f.checkVersion(unit) {
		return ErrRejected
	}
	f.emitVars(ectx, unit)
	f.emitFuncs(ectx, unit)
	f.emitKernels(ectx, unit)
	f.emitRecords(ectx, unit)
	return nil
}

// emitPragmas records the unit's pragmas. The channel is created even when
// empty and even for units the gate later rejects: it belongs to the
// translation-unit bookkeeping that precedes export processing, and readers
// treat it as advisory.
func (f *Finalizer) emitPragmas(ectx *emitContext, unit *export.Unit) {
	def := ectx.channel(abi.PragmaChannel)
	for _, p := range unit.Pragmas {
		ectx.addRow(def, p.Name, p.Value)
	}
}

// emitVars writes one row per exported global and threads the object slot
// channel through the same loop. A slot index is the variable's position in
// the var channel, so the two channels must be produced by the same
// iteration; filtering or reordering either one breaks the ABI.
func (f *Finalizer) emitVars(ectx *emitContext, unit *export.Unit) {
	if len(unit.Vars) == 0 {
		return
	}
	vars := ectx.channel(abi.VarChannel)
	slotCount := 0
	for _, v := range unit.Vars {
		ectx.addRow(vars, v.Name, EncodeVarType(v.Type))
		slots := ectx.channel(abi.SlotChannel)
		if v.IsObject() {
			ectx.addRow(slots, strconv.Itoa(slotCount))
		}
		slotCount++
	}
}

// emitFuncs writes the function channel. Functions without parameters are
// listed under their own symbol and invoked directly; the rest are listed
// under the adapter synthesized for them.
func (f *Finalizer) emitFuncs(ectx *emitContext, unit *export.Unit) {
	if len(unit.Funcs) == 0 {
		return
	}
	funcs := ectx.channel(abi.FuncChannel)
	for _, fn := range unit.Funcs {
		if !fn.HasParams() {
			ectx.addRow(funcs, fn.Name)
			continue
		}
		adapter := f.buildAdapter(ectx, fn)
		ectx.addRow(funcs, adapter.Name())
	}
}

func (f *Finalizer) emitKernels(ectx *emitContext, unit *export.Unit) {
	if len(unit.Kernels) == 0 {
		return
	}
	kernels := ectx.channel(abi.KernelChannel)
	for _, k := range unit.Kernels {
		ectx.addRow(kernels, k.Signature.Encoding())
	}
}

// emitRecords writes the type channel plus one dedicated channel per record
// carrying a [name, typeName, kindCode] row per field in declaration order.
// A record channel that already holds rows means the stage ran twice over
// the same module; the driver makes that impossible, so finding rows is an
// internal bug, not user input.
func (f *Finalizer) emitRecords(ectx *emitContext, unit *export.Unit) {
	if len(unit.Records) == 0 {
		return
	}
	names := ectx.channel(abi.TypeChannel)
	for _, rec := range unit.Records {
		ectx.addRow(names, rec.Name)
		fields := ectx.channel(abi.RecordChannel(rec.Name))
		if len(fields.Nodes) != 0 {
			panic("backend: record channel " + abi.RecordChannel(rec.Name) + " already populated")
		}
		for _, fd := range rec.Fields {
			ectx.addRow(fields, fd.Name, fd.Type.TypeName(), fd.KindCode().Encoding())
		}
	}
}

// EncodeVarType renders the type column of a var row. Primitives and
// matrices write their numeric kind encoding; pointers write '*' ahead of
// the pointee's name; vectors, arrays and records write their type name and
// are resolved against the record channels by the reader. The reflection
// sidecar uses the same encoding so the two surfaces never drift apart.
func EncodeVarType(t export.Type) string {
	switch t := t.(type) {
	case export.Primitive:
		return t.Kind.Encoding()
	case export.Pointer:
		return "*" + t.Pointee.TypeName()
	case export.Matrix:
		return abi.MatrixKind(t.Dim).Encoding()
	case export.Vector:
		return t.TypeName()
	case export.Array:
		return t.TypeName()
	case *export.Record:
		return t.TypeName()
	}
	panic("backend: unhandled export type in var encoding")
}
