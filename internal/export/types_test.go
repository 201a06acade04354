package export_test

import (
	"testing"

	"emberlink/internal/abi"
	"emberlink/internal/export"
)

func TestTypeNames(t *testing.T) {
	sample := &export.Record{Name: "Sample"}
	tests := []struct {
		typ  export.Type
		name string
	}{
		{export.Primitive{Kind: abi.KindFloat32}, "float32"},
		{export.Primitive{Kind: abi.KindBuffer}, "buffer"},
		{export.Pointer{Pointee: export.Primitive{Kind: abi.KindInt32}}, "*int32"},
		{export.Matrix{Dim: 3}, "mat3"},
		{export.Vector{Elem: abi.KindFloat32, Lanes: 4}, "float32x4"},
		{export.Array{Elem: export.Primitive{Kind: abi.KindUint8}, Len: 16}, "[16]uint8"},
		{sample, "Sample"},
		{export.Pointer{Pointee: sample}, "*Sample"},
	}
	for _, tt := range tests {
		if got := tt.typ.TypeName(); got != tt.name {
			t.Errorf("TypeName() = %q, expected %q", got, tt.name)
		}
	}
}

func TestFieldKindCodes(t *testing.T) {
	tests := []struct {
		name string
		typ  export.Type
		kind abi.KindCode
	}{
		{"scalar", export.Primitive{Kind: abi.KindFloat64}, abi.KindFloat64},
		{"vector carries element kind", export.Vector{Elem: abi.KindInt16, Lanes: 2}, abi.KindInt16},
		{"pointer is user", export.Pointer{Pointee: export.Primitive{Kind: abi.KindFloat32}}, abi.KindUser},
		{"matrix is user", export.Matrix{Dim: 2}, abi.KindUser},
		{"array is user", export.Array{Elem: export.Primitive{Kind: abi.KindBool}, Len: 4}, abi.KindUser},
		{"nested record is user", &export.Record{Name: "Inner"}, abi.KindUser},
	}
	for _, tt := range tests {
		f := export.Field{Name: tt.name, Type: tt.typ}
		if got := f.KindCode(); got != tt.kind {
			t.Errorf("%s: KindCode() = %d, expected %d", tt.name, got, tt.kind)
		}
	}
}

func TestVarIsObject(t *testing.T) {
	tests := []struct {
		name   string
		typ    export.Type
		object bool
	}{
		{"gain", export.Primitive{Kind: abi.KindFloat32}, false},
		{"input", export.Primitive{Kind: abi.KindBuffer}, true},
		{"lut", export.Primitive{Kind: abi.KindElement}, true},
		{"transform", export.Matrix{Dim: 4}, false},
		{"handlePtr", export.Pointer{Pointee: export.Primitive{Kind: abi.KindBuffer}}, false},
	}
	for _, tt := range tests {
		v := &export.Var{Name: tt.name, Type: tt.typ}
		if got := v.IsObject(); got != tt.object {
			t.Errorf("%s: IsObject() = %v, expected %v", tt.name, got, tt.object)
		}
	}
}

func TestFuncHasParams(t *testing.T) {
	void := &export.Func{Name: "reset"}
	if void.HasParams() {
		t.Fatal("zero-param function reported params")
	}
	withParams := &export.Func{
		Name:   "configure",
		Params: []export.Type{export.Primitive{Kind: abi.KindFloat32}},
	}
	if !withParams.HasParams() {
		t.Fatal("function with params reported none")
	}
}
