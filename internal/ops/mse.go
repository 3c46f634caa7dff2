package ops

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// MSE operand slots.
const (
	MSEPredicted = 0
	MSETarget    = 1
)

// MSEForward computes the mean squared error between predicted and
// target, both (batch, 1) column vectors, into a scalar out:
//
//	out = (1/batch) * sum_i 0.5*(predicted[i]-target[i])^2
//
// The column-vector contract (rather than an arbitrary shape) is what
// lets the batch dimension double as the averaging denominator, exactly
// as mse_loss does against y_pred->shape[0].
func MSEForward(predicted, target, out *tensor.Tensor) error {
	if err := tensor.CheckNil(predicted); err != nil {
		return err
	}
	if err := tensor.CheckNil(target); err != nil {
		return err
	}
	if err := tensor.CheckNil(out); err != nil {
		return err
	}
	if predicted.NumElements() != target.NumElements() {
		return pkgerrors.Wrapf(tensor.ErrDataSizeMismatch, "mse: predicted=%v target=%v", predicted.ShapeSlice(), target.ShapeSlice())
	}
	if !tensor.SameShape(predicted, target) {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "mse: predicted=%v target=%v", predicted.ShapeSlice(), target.ShapeSlice())
	}
	if predicted.Rank != 2 || predicted.Shape[1] != 1 {
		return pkgerrors.Wrapf(tensor.ErrWrongShape, "mse: predicted=%v, want a (batch, 1) column vector", predicted.ShapeSlice())
	}

	batch := predicted.Shape[0]
	sum := 0.0
	for i := 0; i < batch; i++ {
		diff := predicted.Data[i] - target.Data[i]
		sum += 0.5 * diff * diff
	}
	out.Data[0] = sum / float64(batch)
	return nil
}

// MSEForwardGraph runs MSEForward and records both backward links.
func MSEForwardGraph(predicted, target *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(1)
	if err != nil {
		return nil, err
	}
	if err := MSEForward(predicted, target, out); err != nil {
		return nil, err
	}
	if err := graph.AddLink(predicted, MSEPredicted, out, mseBackwardPredicted, allocators.Nodes); err != nil {
		return nil, err
	}
	if err := graph.AddLink(target, MSETarget, out, mseBackwardTarget, allocators.Nodes); err != nil {
		return nil, err
	}
	return out, nil
}

func mseBackwardPredicted(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	predicted := ctx.Operands[MSEPredicted]
	target := ctx.Operands[MSETarget]
	batch := float64(target.Shape[0])
	upstream := gradOut.Data[0]
	for i := range gradIn.Data {
		gradIn.Data[i] = upstream * (predicted.Data[i] - target.Data[i]) / batch
	}
}

func mseBackwardTarget(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	mseBackwardPredicted(ctx, gradOut, gradIn)
	for i := range gradIn.Data {
		gradIn.Data[i] *= -1
	}
}
