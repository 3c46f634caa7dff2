package ops

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// Transpose operand slots.
const (
	TransposeOnlyOperand = 0
)

// transposeUnchecked writes x's transpose into out. Both must already be
// shaped (cols, rows) for x's (rows, cols); used as scratch by MatMul
// and Linear's backward rules as well as by the standalone tracked
// Transpose operator.
func transposeUnchecked(x, out *tensor.Tensor) {
	rows, cols := x.Shape[0], x.Shape[1]
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Data[j*rows+i] = x.Data[i*cols+j]
		}
	}
}

// TransposeForward computes out = x^T for a rank-2 x, into a pre-shaped
// (cols, rows) out.
func TransposeForward(x, out *tensor.Tensor) error {
	if err := tensor.CheckNil(x); err != nil {
		return err
	}
	if err := tensor.CheckNil(out); err != nil {
		return err
	}
	if x.Rank != 2 || out.Rank != 2 {
		return pkgerrors.Wrapf(tensor.ErrWrongShape, "transpose: x=%v out=%v", x.ShapeSlice(), out.ShapeSlice())
	}
	if out.Shape[0] != x.Shape[1] || out.Shape[1] != x.Shape[0] {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "transpose: x=%v out=%v", x.ShapeSlice(), out.ShapeSlice())
	}
	transposeUnchecked(x, out)
	return nil
}

// TransposeForwardGraph runs TransposeForward and records the backward
// link: the gradient wrt. x is simply the transpose of the upstream
// gradient.
func TransposeForwardGraph(x *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(x.Shape[1], x.Shape[0])
	if err != nil {
		return nil, err
	}
	if err := TransposeForward(x, out); err != nil {
		return nil, err
	}
	if err := graph.AddLink(x, TransposeOnlyOperand, out, transposeBackward, allocators.Nodes); err != nil {
		return nil, err
	}
	return out, nil
}

func transposeBackward(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	transposeUnchecked(gradOut, gradIn)
}
