// Package ops is the Operator Adapter Layer: forward kernels over plain
// *tensor.Tensor buffers, each paired with a ForwardGraph variant that
// also records the operand link(s) needed for backward.
package ops

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// ReLU operand slots.
const (
	ReLUOnlyOperand = 0
)

// ReLUForward computes out[i] = max(0, x[i]) elementwise, in place into
// a pre-shaped out.
func ReLUForward(x, out *tensor.Tensor) error {
	if err := tensor.CheckNil(x); err != nil {
		return err
	}
	if err := tensor.CheckNil(out); err != nil {
		return err
	}
	if !tensor.SameShape(x, out) {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "relu: x=%v out=%v", x.ShapeSlice(), out.ShapeSlice())
	}
	for i, v := range x.Data {
		if v > 0 {
			out.Data[i] = v
		} else {
			out.Data[i] = 0
		}
	}
	return nil
}

// ReLUForwardGraph runs ReLUForward and records the backward link:
// dz/dX is the Hadamard product of the upstream gradient and the
// elementwise indicator 1[x>0], since element (i,j) of relu(X) depends
// only on element (i,j) of X.
func ReLUForwardGraph(x *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(x.ShapeSlice()...)
	if err != nil {
		return nil, err
	}
	if err := ReLUForward(x, out); err != nil {
		return nil, err
	}
	err = graph.AddLink(x, ReLUOnlyOperand, out, reluBackward, allocators.Nodes)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func reluBackward(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	x := ctx.Operands[ReLUOnlyOperand]
	for i := range gradIn.Data {
		if x.Data[i] > 0 {
			gradIn.Data[i] = gradOut.Data[i]
		} else {
			gradIn.Data[i] = 0
		}
	}
}
