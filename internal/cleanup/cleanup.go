// Package cleanup synthesizes the module destructor for exported object
// handles. The host runtime resolves it by name when tearing a script down
// and expects it to release every reference-counted exported global.
package cleanup

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"emberlink/internal/abi"
	"emberlink/internal/diag"
	"emberlink/internal/export"
)

// ErrMissingGlobal is returned when an exported object variable has no
// matching global in the compiled module. Manifest and module came out of
// different builds; the details are on the diagnostic sink.
var ErrMissingGlobal = errors.New("cleanup: exported object global missing from the compiled module")

// Synthesize appends the object release destructor to m: a void, parameter
// free function that hands every exported object global to the runtime's
// release hook, in slot order. No destructor is built when the unit exports
// no object variable. The returned func is nil when nothing was built.
//
// This runs before the finalize stage so the destructor is part of the
// module the export metadata describes.
func Synthesize(unit *export.Unit, m *ir.Module, reporter diag.Reporter) (*ir.Func, error) {
	if !unit.Exports {
		return nil, nil
	}

	type slot struct {
		v *export.Var
		g *ir.Global
	}
	var slots []slot
	missing := 0
	for _, v := range unit.Vars {
		if !v.IsObject() {
			continue
		}
		g := findGlobal(m, v.Name)
		if g == nil {
			diag.ReportError(reporter, diag.LnkObjectGlobalMissing, unit.Span,
				fmt.Sprintf("object variable %q has no global in the compiled module", v.Name)).Emit()
			missing++
			continue
		}
		slots = append(slots, slot{v: v, g: g})
	}
	if missing > 0 {
		return nil, ErrMissingGlobal
	}
	if len(slots) == 0 {
		return nil, nil
	}

	// The hook takes an opaque handle slot; globals of a more specific
	// handle type are bitcast at the call site.
	handleTy := types.NewPointer(types.NewPointer(types.I8))
	hook := findFunc(m, abi.ReleaseFunc)
	if hook == nil {
		hook = m.NewFunc(abi.ReleaseFunc, types.Void, ir.NewParam("handle", handleTy))
	}

	dtor := m.NewFunc(abi.CleanupFunc, types.Void)
	dtor.Linkage = enum.LinkageExternal
	entry := dtor.NewBlock("entry")
	for _, s := range slots {
		arg := value.Value(s.g)
		if !s.g.Type().Equal(handleTy) {
			arg = entry.NewBitCast(s.g, handleTy)
		}
		entry.NewCall(hook, arg)
	}
	entry.NewRet(nil)
	return dtor, nil
}

func findGlobal(m *ir.Module, name string) *ir.Global {
	for _, g := range m.Globals {
		if g.Name() == name {
			return g
		}
	}
	return nil
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}
	return nil
}
