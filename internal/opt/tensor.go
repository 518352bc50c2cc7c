package opt

import (
	"fmt"
	"slices"
)

// Tensor is a dense float64 array of arbitrary shape, stored row-major.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor wraps data with shape. len(data) must equal the product of the
// dimensions. The data slice is used as is, not copied.
func NewTensor(shape []int, data []float64) (Tensor, error) {
	n, err := numel(shape)
	if err != nil {
		return Tensor{}, err
	}
	if len(data) != n {
		return Tensor{}, &ShapeError{
			Want: slices.Clone(shape),
			Got:  []int{len(data)},
			What: "data",
		}
	}
	return Tensor{Shape: slices.Clone(shape), Data: data}, nil
}

// Vector wraps data as a one-dimensional tensor.
func Vector(data ...float64) Tensor {
	return Tensor{Shape: []int{len(data)}, Data: data}
}

// Zeros returns a zero-filled tensor. It panics on a negative dimension.
func Zeros(shape ...int) Tensor {
	n, err := numel(shape)
	if err != nil {
		panic(err)
	}
	return Tensor{Shape: slices.Clone(shape), Data: make([]float64, n)}
}

// Size returns the number of elements.
func (t Tensor) Size() int {
	return len(t.Data)
}

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	return Tensor{Shape: slices.Clone(t.Shape), Data: slices.Clone(t.Data)}
}

// SameShape reports whether t and o have identical dimensions.
func (t Tensor) SameShape(o Tensor) bool {
	return slices.Equal(t.Shape, o.Shape)
}

func (t Tensor) String() string {
	return fmt.Sprintf("Tensor%v%v", t.Shape, t.Data)
}

// validate checks that the data fills the shape.
func (t Tensor) validate(what string) error {
	n, err := numel(t.Shape)
	if err != nil {
		return err
	}
	if n != len(t.Data) {
		return &ShapeError{Want: t.Shape, Got: []int{len(t.Data)}, What: what + " data"}
	}
	return nil
}

func numel(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, &ShapeError{Got: slices.Clone(shape), What: "shape with negative dimension"}
		}
		n *= d
	}
	return n, nil
}
