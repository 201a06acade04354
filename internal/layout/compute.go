package layout

import (
	"fortio.org/safecast"

	"github.com/llir/llvm/ir/types"
)

func (e *Engine) computeLayout(t types.Type, state *layoutState) (TypeLayout, *Error) {
	switch t := t.(type) {
	case *types.IntType:
		// i1 occupies a full byte in memory; wider integers get natural
		// alignment rounded up to a power of two (i24 and friends do not
		// occur in front-end output).
		bytes := int((t.BitSize + 7) / 8)
		if bytes == 0 {
			bytes = 1
		}
		return scalarLayoutBytes(nextPow2(bytes)), nil

	case *types.FloatType:
		switch t.Kind {
		case types.FloatKindHalf:
			return scalarLayoutBytes(2), nil
		case types.FloatKindFloat:
			return scalarLayoutBytes(4), nil
		case types.FloatKindDouble:
			return scalarLayoutBytes(8), nil
		case types.FloatKindFP128, types.FloatKindPPC_FP128:
			return scalarLayoutBytes(16), nil
		case types.FloatKindX86_FP80:
			return TypeLayout{Size: 16, Align: 16}, nil
		default:
			return TypeLayout{Size: 0, Align: 1}, &Error{Kind: ErrUnsupportedType, Type: t}
		}

	case *types.PointerType:
		return e.ptrLayout(), nil

	case *types.VectorType:
		elem, err := e.layoutOf(t.ElemType, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		n, cerr := safecast.Conv[int](t.Len)
		if cerr != nil {
			return TypeLayout{Size: 0, Align: 1}, &Error{Kind: ErrLengthConversion, Type: t, Err: cerr}
		}
		// Vectors are padded and aligned to the next power of two of their
		// payload, so a 3-lane float vector occupies 16 bytes.
		size := nextPow2(elem.Size * n)
		if size == 0 {
			size = 1
		}
		return TypeLayout{Size: size, Align: size}, nil

	case *types.ArrayType:
		elem, err := e.layoutOf(t.ElemType, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		n, cerr := safecast.Conv[int](t.Len)
		if cerr != nil {
			return TypeLayout{Size: 0, Align: 1}, &Error{Kind: ErrLengthConversion, Type: t, Err: cerr}
		}
		align := elem.Align
		if align <= 0 {
			align = 1
		}
		stride := roundUp(elem.Size, align)
		return TypeLayout{Size: stride * n, Align: align}, nil

	case *types.StructType:
		return e.structLayout(t, state)

	default:
		// void, functions, labels, metadata and friends have no in-memory
		// layout and never appear inside a parameter aggregate.
		return TypeLayout{Size: 0, Align: 1}, &Error{Kind: ErrUnsupportedType, Type: t}
	}
}

func (e *Engine) structLayout(st *types.StructType, state *layoutState) (TypeLayout, *Error) {
	if st.Opaque {
		return TypeLayout{Size: 0, Align: 1}, &Error{Kind: ErrUnsupportedType, Type: st}
	}

	offsets := make([]int, len(st.Fields))
	aligns := make([]int, len(st.Fields))

	if st.Packed {
		size := 0
		for i, ft := range st.Fields {
			fl, err := e.layoutOf(ft, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			offsets[i] = size
			aligns[i] = 1
			size += fl.Size
		}
		return TypeLayout{
			Size:         size,
			Align:        1,
			FieldOffsets: offsets,
			FieldAligns:  aligns,
		}, nil
	}

	size := 0
	align := 1
	for i, ft := range st.Fields {
		fl, err := e.layoutOf(ft, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := fl.Align
		if fAlign <= 0 {
			fAlign = 1
		}
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = maxInt(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}

func (e *Engine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
