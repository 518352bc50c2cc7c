package opt

import (
	"errors"
	"testing"
)

func TestNewTensor(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		data    []float64
		wantErr bool
	}{
		{"vector", []int{3}, []float64{1, 2, 3}, false},
		{"matrix", []int{2, 2}, []float64{1, 2, 3, 4}, false},
		{"scalar", []int{}, []float64{7}, false},
		{"empty", []int{0}, nil, false},
		{"short data", []int{2, 2}, []float64{1, 2, 3}, true},
		{"negative dim", []int{-2}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tn, err := NewTensor(tt.shape, tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrShape) {
					t.Errorf("expected ShapeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTensor failed: %v", err)
			}
			if tn.Size() != len(tt.data) {
				t.Errorf("Size() = %d, want %d", tn.Size(), len(tt.data))
			}
		})
	}
}

func TestZerosAndClone(t *testing.T) {
	z := Zeros(2, 3)
	if z.Size() != 6 {
		t.Fatalf("Zeros(2, 3).Size() = %d", z.Size())
	}

	c := z.Clone()
	c.Data[0] = 1
	c.Shape[0] = 9
	if z.Data[0] != 0 || z.Shape[0] != 2 {
		t.Error("Clone shares storage with the original")
	}
	if !z.SameShape(Zeros(2, 3)) || z.SameShape(Zeros(3, 2)) {
		t.Error("SameShape mismatch")
	}
}

func TestZerosPanicsOnNegative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Zeros(-1) did not panic")
		}
	}()
	Zeros(-1)
}
