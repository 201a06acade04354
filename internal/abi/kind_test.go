package abi_test

import (
	"testing"

	"emberlink/internal/abi"
)

// The numeric values are read by host runtimes that ship separately from the
// compiler, so they are pinned here. If this test fails you broke the ABI.
func TestKindCodesAreStable(t *testing.T) {
	pinned := []struct {
		kind abi.KindCode
		code int8
	}{
		{abi.KindFloat32, 0},
		{abi.KindFloat64, 1},
		{abi.KindInt8, 2},
		{abi.KindInt16, 3},
		{abi.KindInt32, 4},
		{abi.KindInt64, 5},
		{abi.KindUint8, 6},
		{abi.KindUint16, 7},
		{abi.KindUint32, 8},
		{abi.KindUint64, 9},
		{abi.KindBool, 10},
		{abi.KindUnorm565, 11},
		{abi.KindUnorm5551, 12},
		{abi.KindUnorm4444, 13},
		{abi.KindMat2, 14},
		{abi.KindMat3, 15},
		{abi.KindMat4, 16},
		{abi.KindElement, 17},
		{abi.KindLayout, 18},
		{abi.KindBuffer, 19},
		{abi.KindSampler, 20},
		{abi.KindScript, 21},
		{abi.KindStream, 22},
		{abi.KindUser, -1},
	}
	for _, p := range pinned {
		if int8(p.kind) != p.code {
			t.Errorf("%s: expected code %d, got %d", p.kind, p.code, int8(p.kind))
		}
	}
}

func TestKindEncodingRoundTrip(t *testing.T) {
	for k := abi.KindFloat32; k <= abi.KindStream; k++ {
		got, ok := abi.KindFromEncoding(k.Encoding())
		if !ok {
			t.Fatalf("%s: encoding %q did not parse", k, k.Encoding())
		}
		if got != k {
			t.Fatalf("%s: round trip produced %s", k, got)
		}
	}
}

func TestKindNameRoundTrip(t *testing.T) {
	for k := abi.KindFloat32; k <= abi.KindStream; k++ {
		got, ok := abi.KindFromName(k.String())
		if !ok || got != k {
			t.Fatalf("%s: name round trip produced %s (ok=%v)", k, got, ok)
		}
	}
	if _, ok := abi.KindFromName("vec4"); ok {
		t.Fatal("expected unknown name to fail")
	}
}

func TestObjectKinds(t *testing.T) {
	tests := []struct {
		kind   abi.KindCode
		object bool
	}{
		{abi.KindFloat32, false},
		{abi.KindBool, false},
		{abi.KindMat4, false},
		{abi.KindElement, true},
		{abi.KindBuffer, true},
		{abi.KindStream, true},
		{abi.KindUser, false},
	}
	for _, tt := range tests {
		if got := tt.kind.IsObject(); got != tt.object {
			t.Errorf("%s: IsObject() = %v, expected %v", tt.kind, got, tt.object)
		}
	}
}

func TestMatrixKinds(t *testing.T) {
	for dim := 2; dim <= 4; dim++ {
		k := abi.MatrixKind(dim)
		if !k.IsMatrix() {
			t.Fatalf("MatrixKind(%d) = %s, not a matrix kind", dim, k)
		}
		got, ok := k.MatrixDim()
		if !ok || got != dim {
			t.Fatalf("MatrixDim() = %d, expected %d", got, dim)
		}
	}
	if _, ok := abi.KindFloat32.MatrixDim(); ok {
		t.Fatal("float32 reported a matrix dimension")
	}
}

func TestSignatureFlags(t *testing.T) {
	sig := abi.SigIn | abi.SigOut | abi.SigX
	if !sig.Has(abi.SigIn | abi.SigOut) {
		t.Fatal("expected combined flags to be present")
	}
	if sig.Has(abi.SigUserData) {
		t.Fatal("userdata flag should be absent")
	}
	if got := sig.String(); got != "in|out|x" {
		t.Fatalf("String() = %q", got)
	}

	parsed, err := abi.ParseSignature(sig.Encoding())
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if parsed != sig {
		t.Fatalf("round trip produced %v, expected %v", parsed, sig)
	}
}
