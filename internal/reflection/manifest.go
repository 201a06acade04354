// Package reflection serializes the export surface of a finalized unit
// into a machine readable sidecar for host build tooling. The sidecar
// carries the same rows as the module's metadata channels plus the byte
// layout of every exported record, so hosts can generate glue without
// parsing IR.
package reflection

import (
	"fmt"

	"emberlink/internal/abi"
	"emberlink/internal/backend"
	"emberlink/internal/export"
	"emberlink/internal/layout"
)

// Schema versions the sidecar encoding. Increment when the Manifest shape
// changes; readers reject sidecars from a different schema.
const Schema uint16 = 1

// Manifest is the sidecar payload.
type Manifest struct {
	Schema  uint16
	Unit    string
	Version int
	Target  string

	Pragmas []Pragma
	Vars    []Var
	Funcs   []Func
	Kernels []Kernel
	Records []Record
}

type Pragma struct {
	Name  string
	Value string
}

// Var mirrors one var channel row plus the slot bookkeeping the channel
// only implies positionally.
type Var struct {
	Name   string
	Type   string
	Slot   int
	Object bool
}

// Func names the symbol the host must invoke: the function itself when it
// takes no parameters, its adapter otherwise.
type Func struct {
	Name   string
	Invoke string
	Params []string
	Return string
}

type Kernel struct {
	Name      string
	Signature uint32
}

// Record carries the byte layout of an exported record on the unit's
// target, one Field per declared field in order.
type Record struct {
	Name   string
	Size   int
	Align  int
	Fields []Field
}

type Field struct {
	Name   string
	Type   string
	Kind   int8
	Offset int
	Size   int
}

// Build derives the sidecar for a unit. Layout figures are computed for
// target, the same target the finalize stage laid parameter blocks out for.
func Build(unit *export.Unit, target layout.Target) (*Manifest, error) {
	man := &Manifest{
		Schema:  Schema,
		Unit:    unit.Name,
		Version: unit.Version,
		Target:  target.Triple,
	}
	for _, p := range unit.Pragmas {
		man.Pragmas = append(man.Pragmas, Pragma{Name: p.Name, Value: p.Value})
	}
	for slot, v := range unit.Vars {
		man.Vars = append(man.Vars, Var{
			Name:   v.Name,
			Type:   backend.EncodeVarType(v.Type),
			Slot:   slot,
			Object: v.IsObject(),
		})
	}
	for _, fn := range unit.Funcs {
		invoke := fn.Name
		if fn.HasParams() {
			invoke = abi.AdapterName(fn.Name)
		}
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.TypeName()
		}
		ret := ""
		if fn.Return != nil {
			ret = fn.Return.TypeName()
		}
		man.Funcs = append(man.Funcs, Func{
			Name:   fn.Name,
			Invoke: invoke,
			Params: params,
			Return: ret,
		})
	}
	for _, k := range unit.Kernels {
		man.Kernels = append(man.Kernels, Kernel{
			Name:      k.Name,
			Signature: uint32(k.Signature),
		})
	}

	lower := backend.NewLowerer()
	engine := layout.New(target)
	for _, rec := range unit.Records {
		st := lower.LowerRecord(rec)
		lay, err := engine.LayoutOf(st)
		if err != nil {
			return nil, fmt.Errorf("reflection: record %s: %w", rec.Name, err)
		}
		out := Record{Name: rec.Name, Size: lay.Size, Align: lay.Align}
		for i, fd := range rec.Fields {
			size, err := engine.SizeOf(st.Fields[i])
			if err != nil {
				return nil, fmt.Errorf("reflection: record %s field %s: %w", rec.Name, fd.Name, err)
			}
			out.Fields = append(out.Fields, Field{
				Name:   fd.Name,
				Type:   fd.Type.TypeName(),
				Kind:   int8(fd.KindCode()),
				Offset: lay.FieldOffsets[i],
				Size:   size,
			})
		}
		man.Records = append(man.Records, out)
	}
	return man, nil
}
