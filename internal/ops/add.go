package ops

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// BiasAdd operand slots.
const (
	BiasAddInput = 0
	BiasAddBias  = 1
)

// BiasAddForward computes out[i][j] = x[i][j] + bias[j][0], broadcasting
// a (cols, 1) column-vector bias across every row of a (rows, cols) x.
// Mirrors tensor2d_add_row_vector.
func BiasAddForward(x, bias, out *tensor.Tensor) error {
	if err := tensor.CheckNil(x); err != nil {
		return err
	}
	if err := tensor.CheckNil(bias); err != nil {
		return err
	}
	if err := tensor.CheckNil(out); err != nil {
		return err
	}
	if x.Rank != 2 || bias.Rank != 2 || bias.Shape[1] != 1 || bias.Shape[0] != x.Shape[1] {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "bias add: x=%v bias=%v", x.ShapeSlice(), bias.ShapeSlice())
	}
	if !tensor.SameShape(x, out) {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "bias add: x=%v out=%v", x.ShapeSlice(), out.ShapeSlice())
	}

	rows, cols := x.Shape[0], x.Shape[1]
	for i := 0; i < rows; i++ {
		rowOff := i * cols
		for j := 0; j < cols; j++ {
			out.Data[rowOff+j] = x.Data[rowOff+j] + bias.Data[j]
		}
	}
	return nil
}

// BiasAddForwardGraph runs BiasAddForward and records both backward
// links: dL/dX is the upstream gradient unchanged; dL/dBias is the
// upstream gradient summed over rows (every row shared the same bias
// element), mirroring linear_backpropagate_bias.
func BiasAddForwardGraph(x, bias *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(x.ShapeSlice()...)
	if err != nil {
		return nil, err
	}
	if err := BiasAddForward(x, bias, out); err != nil {
		return nil, err
	}
	if err := graph.AddLink(x, BiasAddInput, out, biasAddBackwardInput, allocators.Nodes); err != nil {
		return nil, err
	}
	if err := graph.AddLink(bias, BiasAddBias, out, biasAddBackwardBias, allocators.Nodes); err != nil {
		return nil, err
	}
	return out, nil
}

func biasAddBackwardInput(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	copy(gradIn.Data, gradOut.Data)
}

func biasAddBackwardBias(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	rows, cols := gradOut.Shape[0], gradOut.Shape[1]
	for i := 0; i < rows; i++ {
		rowOff := i * cols
		for j := 0; j < cols; j++ {
			gradIn.Data[j] += gradOut.Data[rowOff+j]
		}
	}
}
