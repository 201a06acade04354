package layout

import (
	"github.com/llir/llvm/ir/types"
)

// TypeLayout is the ABI layout of an IR type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
}

// FieldSlot is one row of the precomputed unpack table for an aggregate: the
// field index GEP instructions use, the byte offset of the field, and its IR
// type. Consumers walk the table instead of re-deriving offsets field by
// field.
type FieldSlot struct {
	Index  int
	Offset int
	Type   types.Type
}

// Engine computes memory layout for IR types.
type Engine struct {
	Target Target

	cache map[types.Type]cacheEntry
}

type cacheEntry struct {
	layout TypeLayout
	err    *Error
}

// New creates an Engine for the specified target.
func New(target Target) *Engine {
	return &Engine{
		Target: target,
		cache:  make(map[types.Type]cacheEntry, 64),
	}
}

type layoutState struct {
	visiting map[*types.StructType]bool
	stack    []string
}

func newLayoutState() *layoutState {
	return &layoutState{visiting: make(map[*types.StructType]bool, 8)}
}

// LayoutOf computes and caches the layout of a type.
func (e *Engine) LayoutOf(t types.Type) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = make(map[types.Type]cacheEntry, 64)
	}
	l, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *Engine) layoutOf(t types.Type, state *layoutState) (TypeLayout, *Error) {
	if cached, ok := e.cache[t]; ok {
		return cached.layout, cached.err
	}

	if st, ok := t.(*types.StructType); ok {
		if state.visiting[st] {
			cycle := append([]string(nil), state.stack...)
			cycle = append(cycle, st.String())
			err := &Error{Kind: ErrRecursiveType, Type: st, Cycle: cycle}
			e.cache[t] = cacheEntry{layout: TypeLayout{Size: 0, Align: 1}, err: err}
			return TypeLayout{Size: 0, Align: 1}, err
		}
		state.visiting[st] = true
		state.stack = append(state.stack, st.String())
		defer func() {
			delete(state.visiting, st)
			state.stack = state.stack[:len(state.stack)-1]
		}()
	}

	layout, err := e.computeLayout(t, state)
	e.cache[t] = cacheEntry{layout: layout, err: err}
	return layout, err
}

// SizeOf returns the size of a type in bytes.
func (e *Engine) SizeOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *Engine) AlignOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *Engine) FieldOffset(st *types.StructType, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(st)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}

// FieldTable returns the unpack table for an aggregate, one slot per field in
// declaration order.
func (e *Engine) FieldTable(st *types.StructType) ([]FieldSlot, error) {
	l, err := e.LayoutOf(st)
	if err != nil {
		return nil, err
	}
	table := make([]FieldSlot, len(st.Fields))
	for i, ft := range st.Fields {
		table[i] = FieldSlot{Index: i, Offset: l.FieldOffsets[i], Type: ft}
	}
	return table, nil
}
