package cleanup_test

import (
	"errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"emberlink/internal/abi"
	"emberlink/internal/cleanup"
	"emberlink/internal/diag"
	"emberlink/internal/export"
)

func handleGlobal(m *ir.Module, name string) *ir.Global {
	return m.NewGlobal(name, types.NewPointer(types.I8))
}

func namedFunc(m *ir.Module, name string) *ir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}
	return nil
}

func TestSynthesizeBuildsDestructor(t *testing.T) {
	m := ir.NewModule()
	img := handleGlobal(m, "img")
	child := handleGlobal(m, "child")

	unit := &export.Unit{Name: "blur", Version: 1, Exports: true}
	unit.Vars = []*export.Var{
		{Name: "gain", Type: export.Primitive{Kind: abi.KindFloat32}},
		{Name: "img", Type: export.Primitive{Kind: abi.KindBuffer}},
		{Name: "child", Type: export.Primitive{Kind: abi.KindScript}},
	}

	bag := diag.NewBag(8)
	dtor, err := cleanup.Synthesize(unit, m, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if dtor == nil {
		t.Fatalf("expected a destructor for a unit with object variables")
	}
	if dtor.Name() != abi.CleanupFunc {
		t.Fatalf("destructor named %q, want %q", dtor.Name(), abi.CleanupFunc)
	}
	if !dtor.Sig.RetType.Equal(types.Void) || len(dtor.Params) != 0 {
		t.Fatalf("destructor must be void and parameter free")
	}

	hook := namedFunc(m, abi.ReleaseFunc)
	if hook == nil {
		t.Fatalf("release hook not declared")
	}
	if len(hook.Params) != 1 {
		t.Fatalf("release hook takes %d params, want 1", len(hook.Params))
	}

	entry := dtor.Blocks[0]
	var calls []*ir.InstCall
	for _, inst := range entry.Insts {
		if call, ok := inst.(*ir.InstCall); ok {
			calls = append(calls, call)
		}
	}
	if len(calls) != 2 {
		t.Fatalf("expected one release call per object variable, got %d", len(calls))
	}
	if calls[0].Args[0] != img || calls[1].Args[0] != child {
		t.Fatalf("release calls must follow slot order")
	}
	for i, call := range calls {
		if call.Callee != hook {
			t.Fatalf("call %d does not target the release hook", i)
		}
	}
	if _, ok := entry.Term.(*ir.TermRet); !ok {
		t.Fatalf("destructor terminates with %T, want ret", entry.Term)
	}
}

func TestSynthesizeSkipsWithoutObjects(t *testing.T) {
	tests := []struct {
		name string
		unit *export.Unit
	}{
		{
			name: "scalars only",
			unit: &export.Unit{Name: "fade", Version: 1, Exports: true, Vars: []*export.Var{
				{Name: "gain", Type: export.Primitive{Kind: abi.KindFloat32}},
			}},
		},
		{
			name: "no vars at all",
			unit: &export.Unit{Name: "fade", Version: 1, Exports: true},
		},
		{
			name: "non-exporting unit",
			unit: &export.Unit{Name: "fade", Version: 1, Exports: false, Vars: []*export.Var{
				{Name: "img", Type: export.Primitive{Kind: abi.KindBuffer}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ir.NewModule()
			handleGlobal(m, "img")
			bag := diag.NewBag(8)
			dtor, err := cleanup.Synthesize(tt.unit, m, diag.BagReporter{Bag: bag})
			if err != nil {
				t.Fatalf("Synthesize failed: %v", err)
			}
			if dtor != nil {
				t.Fatalf("no destructor expected")
			}
			if namedFunc(m, abi.CleanupFunc) != nil {
				t.Fatalf("destructor must not be added to the module")
			}
			if namedFunc(m, abi.ReleaseFunc) != nil {
				t.Fatalf("release hook must not be declared when unused")
			}
		})
	}
}

func TestSynthesizeReportsMissingGlobals(t *testing.T) {
	m := ir.NewModule()
	unit := &export.Unit{Name: "blur", Version: 1, Exports: true, Vars: []*export.Var{
		{Name: "img", Type: export.Primitive{Kind: abi.KindBuffer}},
	}}

	bag := diag.NewBag(8)
	dtor, err := cleanup.Synthesize(unit, m, diag.BagReporter{Bag: bag})
	if !errors.Is(err, cleanup.ErrMissingGlobal) {
		t.Fatalf("expected ErrMissingGlobal, got %v", err)
	}
	if dtor != nil {
		t.Fatalf("no destructor expected on error")
	}
	if !bag.HasErrors() {
		t.Fatalf("missing global must be reported")
	}
	if got := bag.Items()[0].Code; got != diag.LnkObjectGlobalMissing {
		t.Fatalf("expected code %v, got %v", diag.LnkObjectGlobalMissing, got)
	}
	if namedFunc(m, abi.CleanupFunc) != nil {
		t.Fatalf("half-built destructor left in the module")
	}
}

func TestSynthesizeBitcastsTypedHandles(t *testing.T) {
	m := ir.NewModule()
	buffer := types.NewStruct(types.NewPointer(types.I8))
	buffer.TypeName = "struct.ember.buffer"
	typed := m.NewGlobal("img", types.NewPointer(buffer))

	unit := &export.Unit{Name: "blur", Version: 1, Exports: true, Vars: []*export.Var{
		{Name: "img", Type: export.Primitive{Kind: abi.KindBuffer}},
	}}

	bag := diag.NewBag(8)
	dtor, err := cleanup.Synthesize(unit, m, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	entry := dtor.Blocks[0]
	if len(entry.Insts) != 2 {
		t.Fatalf("expected a bitcast and a call, got %d instructions", len(entry.Insts))
	}
	cast, ok := entry.Insts[0].(*ir.InstBitCast)
	if !ok {
		t.Fatalf("first instruction is %T, want a bitcast", entry.Insts[0])
	}
	if cast.From != typed {
		t.Fatalf("bitcast does not source the typed global")
	}
	call, ok := entry.Insts[1].(*ir.InstCall)
	if !ok {
		t.Fatalf("second instruction is %T, want a call", entry.Insts[1])
	}
	if call.Args[0] != cast {
		t.Fatalf("release call must take the bitcast handle")
	}
}
