package backend_test

import (
	"reflect"
	"testing"

	"github.com/llir/llvm/ir"

	"emberlink/internal/abi"
	"emberlink/internal/backend"
	"emberlink/internal/export"
)

func TestChannelRowsDecodesEmittedChannels(t *testing.T) {
	unit := exportingUnit()
	unit.Pragmas = []export.Pragma{{Name: "stateFunction", Value: "init"}}
	unit.Vars = []*export.Var{
		{Name: "gain", Type: export.Primitive{Kind: abi.KindFloat32}},
		{Name: "img", Type: export.Primitive{Kind: abi.KindBuffer}},
	}

	m := ir.NewModule()
	finalize(t, unit, m)

	if got, want := backend.ChannelRows(m, abi.VarChannel), [][]string{{"gain", "0"}, {"img", "19"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("var rows mismatch\n got: %v\nwant: %v", got, want)
	}
	if got, want := backend.ChannelRows(m, abi.PragmaChannel), [][]string{{"stateFunction", "init"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("pragma rows mismatch\n got: %v\nwant: %v", got, want)
	}
	if got := backend.ChannelRows(m, abi.KernelChannel); got != nil {
		t.Fatalf("expected nil rows for a missing channel, got %v", got)
	}
}

func TestRecordChannelsSortsNames(t *testing.T) {
	unit := exportingUnit()
	unit.Records = []*export.Record{
		{Name: "Sample", Fields: []export.Field{{Name: "w", Type: export.Primitive{Kind: abi.KindFloat32}}}},
		{Name: "Filter", Fields: []export.Field{{Name: "taps", Type: export.Primitive{Kind: abi.KindInt32}}}},
	}

	m := ir.NewModule()
	finalize(t, unit, m)

	if got, want := backend.RecordChannels(m), []string{"Filter", "Sample"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected record channels %v, got %v", want, got)
	}
}
