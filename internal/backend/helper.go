package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"go.uber.org/zap"

	"emberlink/internal/abi"
	"emberlink/internal/export"
	"emberlink/internal/layout"
)

// buildAdapter synthesizes the single-pointer trampoline for an exported
// function that takes parameters. The host invokes the adapter with one
// pointer to a parameter block; the adapter unpacks the block field by
// field and forwards to the real function.
//
// The block's layout comes from the compiled function's actual parameter
// types, not from the export descriptor: when the two disagree, the
// compiled module is the one the code was generated against, so the
// disagreement is logged and the compiled truth wins.
func (f *Finalizer) buildAdapter(ectx *emitContext, fn *export.Func) *ir.Func {
	compiled := findFunc(ectx.m, fn.Name)
	if compiled == nil {
		panic(fmt.Sprintf("backend: exported function %q disappeared from the compiled module", fn.Name))
	}

	fieldTypes := make([]types.Type, 0, len(compiled.Params))
	for _, p := range compiled.Params {
		fieldTypes = append(fieldTypes, p.Type())
	}
	f.checkParamBlock(ectx, fn, fieldTypes)

	var (
		adapter   *ir.Func
		aggregate *types.StructType
		packed    *ir.Param
	)
	name := abi.AdapterName(fn.Name)
	if len(fieldTypes) == 0 {
		// Nothing to unpack, so the adapter takes no parameter at all.
		adapter = ectx.m.NewFunc(name, compiled.Sig.RetType)
	} else {
		aggregate = types.NewStruct(fieldTypes...)
		packed = ir.NewParam("argp", types.NewPointer(aggregate))
		adapter = ectx.m.NewFunc(name, compiled.Sig.RetType, packed)
	}
	adapter.Linkage = enum.LinkageExternal
	adapter.CallingConv = compiled.CallingConv
	adapter.FuncAttrs = append(adapter.FuncAttrs, enum.FuncAttrNoInline)

	entry := adapter.NewBlock("entry")
	var args []value.Value
	if aggregate != nil {
		table, err := f.layout.FieldTable(aggregate)
		if err != nil {
			panic(fmt.Sprintf("backend: parameter block of %q has no layout: %v", fn.Name, err))
		}
		args = make([]value.Value, 0, len(table))
		for _, slot := range table {
			gep := entry.NewGetElementPtr(aggregate, packed,
				constant.NewInt(types.I32, 0),
				constant.NewInt(types.I32, int64(slot.Index)))
			gep.InBounds = true
			args = append(args, entry.NewLoad(slot.Type, gep))
		}
	}
	call := entry.NewCall(compiled, args...)
	call.CallingConv = compiled.CallingConv
	if compiled.Sig.RetType.Equal(types.Void) {
		entry.NewRet(nil)
	} else {
		entry.NewRet(call)
	}
	return adapter
}

// checkParamBlock compares the parameter block derived from the compiled
// function against the one the export descriptor predicts. A mismatch means
// the manifest and the module came out of different builds; the adapter
// still follows the compiled module, so this logs and returns.
func (f *Finalizer) checkParamBlock(ectx *emitContext, fn *export.Func, compiled []types.Type) {
	declared := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		declared[i] = ectx.lower.Lower(p)
	}
	if typeListEqual(declared, compiled) {
		return
	}
	f.log.Warn("parameter block mismatch, trusting the compiled module",
		zap.String("function", fn.Name),
		zap.String("adapter", abi.AdapterName(fn.Name)),
		zap.String("declared", typeList(declared)),
		zap.String("declared_offsets", offsetList(f.layout, declared)),
		zap.String("compiled", typeList(compiled)),
		zap.String("compiled_offsets", offsetList(f.layout, compiled)),
	)
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}
	return nil
}

func typeListEqual(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func typeList(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func offsetList(engine *layout.Engine, fields []types.Type) string {
	table, err := engine.FieldTable(types.NewStruct(fields...))
	if err != nil {
		return "?"
	}
	parts := make([]string, len(table))
	for i, slot := range table {
		parts[i] = strconv.Itoa(slot.Offset)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
