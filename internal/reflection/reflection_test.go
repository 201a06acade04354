package reflection_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"emberlink/internal/abi"
	"emberlink/internal/export"
	"emberlink/internal/layout"
	"emberlink/internal/reflection"
)

func blurUnit() *export.Unit {
	sample := &export.Record{Name: "Sample", Fields: []export.Field{
		{Name: "pos", Type: export.Vector{Elem: abi.KindFloat32, Lanes: 4}},
		{Name: "weight", Type: export.Primitive{Kind: abi.KindFloat32}},
	}}
	sample.Fields = append(sample.Fields, export.Field{
		Name: "next", Type: export.Pointer{Pointee: sample},
	})
	return &export.Unit{
		Name:    "blur",
		Version: 1,
		Exports: true,
		Pragmas: []export.Pragma{{Name: "version", Value: "1"}},
		Vars: []*export.Var{
			{Name: "gain", Type: export.Primitive{Kind: abi.KindFloat32}},
			{Name: "img", Type: export.Primitive{Kind: abi.KindBuffer}},
			{Name: "mvp", Type: export.Matrix{Dim: 4}},
		},
		Funcs: []*export.Func{
			{Name: "reset"},
			{Name: "configure", Params: []export.Type{
				export.Primitive{Kind: abi.KindFloat32},
				export.Primitive{Kind: abi.KindInt32},
			}, Return: export.Primitive{Kind: abi.KindInt32}},
		},
		Kernels: []*export.Kernel{{Name: "root", Signature: 27}},
		Records: []*export.Record{sample},
	}
}

func TestBuildMirrorsExportSurface(t *testing.T) {
	man, err := reflection.Build(blurUnit(), layout.X86_64LinuxGNU())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if man.Schema != reflection.Schema {
		t.Fatalf("schema %d, want %d", man.Schema, reflection.Schema)
	}
	if man.Unit != "blur" || man.Version != 1 {
		t.Fatalf("unit header %q v%d", man.Unit, man.Version)
	}
	if man.Target != "x86_64-linux-gnu" {
		t.Fatalf("target %q", man.Target)
	}

	wantVars := []reflection.Var{
		{Name: "gain", Type: "0", Slot: 0, Object: false},
		{Name: "img", Type: "19", Slot: 1, Object: true},
		{Name: "mvp", Type: "16", Slot: 2, Object: false},
	}
	if !reflect.DeepEqual(man.Vars, wantVars) {
		t.Fatalf("vars mismatch\n got: %+v\nwant: %+v", man.Vars, wantVars)
	}

	wantFuncs := []reflection.Func{
		{Name: "reset", Invoke: "reset", Params: []string{}, Return: ""},
		{Name: "configure", Invoke: ".helper_configure", Params: []string{"float32", "int32"}, Return: "int32"},
	}
	if !reflect.DeepEqual(man.Funcs, wantFuncs) {
		t.Fatalf("funcs mismatch\n got: %+v\nwant: %+v", man.Funcs, wantFuncs)
	}

	if len(man.Kernels) != 1 || man.Kernels[0].Signature != 27 {
		t.Fatalf("kernels mismatch: %+v", man.Kernels)
	}

	if len(man.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(man.Records))
	}
	rec := man.Records[0]
	if rec.Name != "Sample" || rec.Size != 32 || rec.Align != 16 {
		t.Fatalf("record layout %s size %d align %d, want Sample 32/16", rec.Name, rec.Size, rec.Align)
	}
	wantFields := []reflection.Field{
		{Name: "pos", Type: "float32x4", Kind: 0, Offset: 0, Size: 16},
		{Name: "weight", Type: "float32", Kind: 0, Offset: 16, Size: 4},
		{Name: "next", Type: "*Sample", Kind: -1, Offset: 24, Size: 8},
	}
	if !reflect.DeepEqual(rec.Fields, wantFields) {
		t.Fatalf("fields mismatch\n got: %+v\nwant: %+v", rec.Fields, wantFields)
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	man, err := reflection.Build(blurUnit(), layout.X86_64LinuxGNU())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "blur.reflect.mp")
	if err := reflection.Write(path, man); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := reflection.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(got, man) {
		t.Fatalf("round trip drifted\n got: %+v\nwant: %+v", got, man)
	}
}

func TestReadRejectsForeignSchema(t *testing.T) {
	man, err := reflection.Build(blurUnit(), layout.X86_64LinuxGNU())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	man.Schema = 99
	path := filepath.Join(t.TempDir(), "blur.reflect.mp")
	if err := reflection.Write(path, man); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := reflection.Read(path); err == nil {
		t.Fatalf("expected a schema error")
	}
}

func TestReadMissingSidecar(t *testing.T) {
	if _, err := reflection.Read(filepath.Join(t.TempDir(), "absent.mp")); err == nil {
		t.Fatalf("expected an error for a missing sidecar")
	}
}
