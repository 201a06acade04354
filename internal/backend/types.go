package backend

import (
	"fmt"

	"github.com/llir/llvm/ir/types"

	"emberlink/internal/abi"
	"emberlink/internal/export"
)

// Lowerer maps export descriptors to the IR types the code generator gives
// values of those descriptors. The adapter cross-check compares these
// predictions against the parameter types actually found in the compiled
// module, and the reflection sidecar derives record layout from them, so
// the mapping here must track the front end exactly.
//
// A Lowerer caches the identified struct built for each record; use one per
// unit so distinct units never share type identity.
type Lowerer struct {
	records map[*export.Record]*types.StructType
}

// NewLowerer returns an empty Lowerer.
func NewLowerer() *Lowerer {
	return &Lowerer{records: make(map[*export.Record]*types.StructType)}
}

// Lower returns the IR type for an export descriptor.
func (l *Lowerer) Lower(t export.Type) types.Type {
	switch t := t.(type) {
	case export.Primitive:
		return lowerKind(t.Kind)
	case export.Pointer:
		return types.NewPointer(l.Lower(t.Pointee))
	case export.Matrix:
		return types.NewArray(uint64(t.Dim*t.Dim), types.Float)
	case export.Vector:
		return types.NewVector(uint64(t.Lanes), lowerKind(t.Elem))
	case export.Array:
		return types.NewArray(uint64(t.Len), l.Lower(t.Elem))
	case *export.Record:
		return l.LowerRecord(t)
	}
	panic(fmt.Sprintf("backend: unhandled export type %T", t))
}

// LowerRecord returns the identified struct for a record, building it on
// first use. The shell is cached before the fields are lowered so a record
// may point at itself. The "struct." spelling matches the front end's
// identified-struct naming, which is what makes the cross-check compare
// equal for by-value record parameters.
func (l *Lowerer) LowerRecord(rec *export.Record) *types.StructType {
	if st, ok := l.records[rec]; ok {
		return st
	}
	st := &types.StructType{TypeName: "struct." + rec.Name}
	l.records[rec] = st
	for _, field := range rec.Fields {
		st.Fields = append(st.Fields, l.Lower(field.Type))
	}
	return st
}

// lowerKind maps a primitive kind to its in-memory IR type. Object handles
// travel as an opaque byte pointer; the packed pixel kinds travel in their
// 16-bit container.
func lowerKind(k abi.KindCode) types.Type {
	switch k {
	case abi.KindFloat32:
		return types.Float
	case abi.KindFloat64:
		return types.Double
	case abi.KindInt8, abi.KindUint8, abi.KindBool:
		return types.I8
	case abi.KindInt16, abi.KindUint16, abi.KindUnorm565, abi.KindUnorm5551, abi.KindUnorm4444:
		return types.I16
	case abi.KindInt32, abi.KindUint32:
		return types.I32
	case abi.KindInt64, abi.KindUint64:
		return types.I64
	case abi.KindMat2, abi.KindMat3, abi.KindMat4:
		dim, _ := k.MatrixDim()
		return types.NewArray(uint64(dim*dim), types.Float)
	}
	if k.IsObject() {
		return types.NewPointer(types.I8)
	}
	panic(fmt.Sprintf("backend: no IR lowering for kind %v", k))
}
