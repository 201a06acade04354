package backend

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
)

// emitContext carries the per-unit state of one finalize pass: the module
// being annotated, the metadata IDs handed out so far, and the descriptor
// lowerer with its record cache. A fresh context is built for every unit,
// so nothing leaks from one module into the next.
type emitContext struct {
	m      *ir.Module
	nextID int64
	lower  *Lowerer
}

func newEmitContext(m *ir.Module) *emitContext {
	if m.NamedMetadataDefs == nil {
		m.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}
	next := int64(0)
	for _, def := range m.MetadataDefs {
		if id := def.ID(); id >= next {
			next = id + 1
		}
	}
	return &emitContext{
		m:      m,
		nextID: next,
		lower:  NewLowerer(),
	}
}

// channel returns the named metadata channel, creating it empty on first
// use. Channels already present in the module (a re-linked input, say) are
// reused as-is.
func (e *emitContext) channel(name string) *metadata.NamedDef {
	if def, ok := e.m.NamedMetadataDefs[name]; ok {
		return def
	}
	def := &metadata.NamedDef{Name: name}
	e.m.NamedMetadataDefs[name] = def
	return def
}

// addRow appends one tuple of string fields to a channel. The tuple is also
// registered as a module-level metadata definition with the next free ID, so
// the module prints without renumbering.
func (e *emitContext) addRow(def *metadata.NamedDef, fields ...string) *metadata.Tuple {
	tuple := &metadata.Tuple{MetadataID: metadata.MetadataID(e.nextID)}
	e.nextID++
	for _, field := range fields {
		tuple.Fields = append(tuple.Fields, &metadata.String{Value: field})
	}
	e.m.MetadataDefs = append(e.m.MetadataDefs, tuple)
	def.Nodes = append(def.Nodes, tuple)
	return tuple
}
