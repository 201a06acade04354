package source

import (
	"testing"
)

func TestSpanBasics(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 20}
	if s.Empty() {
		t.Error("non-empty span reported Empty")
	}
	if s.Len() != 10 {
		t.Errorf("Len() = %d, expected 10", s.Len())
	}
	if got := s.String(); got != "1:10-20" {
		t.Errorf("String() = %q", got)
	}

	empty := Span{File: 1, Start: 5, End: 5}
	if !empty.Empty() {
		t.Error("empty span not reported Empty")
	}
}

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected Span
	}{
		{
			name:     "disjoint spans widen",
			a:        Span{File: 1, Start: 10, End: 20},
			b:        Span{File: 1, Start: 30, End: 40},
			expected: Span{File: 1, Start: 10, End: 40},
		},
		{
			name:     "contained span is a no-op",
			a:        Span{File: 1, Start: 10, End: 40},
			b:        Span{File: 1, Start: 15, End: 20},
			expected: Span{File: 1, Start: 10, End: 40},
		},
		{
			name:     "earlier start widens left",
			a:        Span{File: 1, Start: 10, End: 20},
			b:        Span{File: 1, Start: 5, End: 12},
			expected: Span{File: 1, Start: 5, End: 20},
		},
		{
			name:     "different file ignored",
			a:        Span{File: 1, Start: 10, End: 20},
			b:        Span{File: 2, Start: 0, End: 100},
			expected: Span{File: 1, Start: 10, End: 20},
		},
	}
	for _, tt := range tests {
		if got := tt.a.Cover(tt.b); got != tt.expected {
			t.Errorf("%s: Cover() = %+v, expected %+v", tt.name, got, tt.expected)
		}
	}
}
