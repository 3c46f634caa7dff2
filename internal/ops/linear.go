package ops

import (
	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// Linear operand slots, matching linear_layer_operand in the original
// C layer.
const (
	LinearInput   = 0
	LinearWeights = 1
	LinearBias    = 2
)

// LinearForward computes out = x @ weights + bias, where x is
// (batch, in), weights is (in, out) and bias is a (out, 1) column
// vector broadcast across rows.
func LinearForward(x, weights, bias, out *tensor.Tensor) error {
	if err := MatMulForward(x, weights, out); err != nil {
		return err
	}
	return BiasAddForward(out, bias, out)
}

// LinearForwardGraph runs LinearForward and links all three operands
// directly to out, rather than through intermediate matmul/bias-add
// nodes — mirroring linear_update_computational_graph, which links x,
// weights and biases straight to the layer's output tensor.
func LinearForwardGraph(x, weights, bias *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(x.Shape[0], weights.Shape[1])
	if err != nil {
		return nil, err
	}
	if err := LinearForward(x, weights, bias, out); err != nil {
		return nil, err
	}
	if err := graph.AddLink(x, LinearInput, out, linearBackwardInput, allocators.Nodes); err != nil {
		return nil, err
	}
	if err := graph.AddLink(weights, LinearWeights, out, linearBackwardWeights, allocators.Nodes); err != nil {
		return nil, err
	}
	if err := graph.AddLink(bias, LinearBias, out, linearBackwardBias, allocators.Nodes); err != nil {
		return nil, err
	}
	return out, nil
}

// linearBackwardInput: dL/dX = dL/dOut @ weights^T.
func linearBackwardInput(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	weights := ctx.Operands[LinearWeights]
	weightsT, err := ctx.Allocator.AllocNoGrad(weights.Shape[1], weights.Shape[0])
	if err != nil {
		panic(err)
	}
	transposeUnchecked(weights, weightsT)
	matMulUnchecked(gradOut.Data, weightsT.Data, gradIn.Data, gradOut.Shape[0], weights.Shape[1], weights.Shape[0])
	ctx.Allocator.FreeNoGrad(weightsT)
}

// linearBackwardWeights: dL/dW = x^T @ dL/dOut.
func linearBackwardWeights(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	x := ctx.Operands[LinearInput]
	xT, err := ctx.Allocator.AllocNoGrad(x.Shape[1], x.Shape[0])
	if err != nil {
		panic(err)
	}
	transposeUnchecked(x, xT)
	matMulUnchecked(xT.Data, gradOut.Data, gradIn.Data, x.Shape[1], x.Shape[0], gradOut.Shape[1])
	ctx.Allocator.FreeNoGrad(xT)
}

// linearBackwardBias: dL/dBias[j] = sum over rows i of dL/dOut[i][j].
func linearBackwardBias(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	biasAddBackwardBias(ctx, gradOut, gradIn)
}
