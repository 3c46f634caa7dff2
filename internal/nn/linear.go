package nn

import (
	"math/rand/v2"

	"github.com/nicolamaritan/cgrad/internal/ops"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/rng"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// Linear is a fully connected layer y = x @ weights + bias, grounded on
// struct linear_layer: weights are (inDim, outDim), bias is a
// (outDim, 1) column vector broadcast across the batch.
type Linear struct {
	Weights *tensor.Tensor
	Bias    *tensor.Tensor

	allocators *pool.Allocators
}

// NewLinear allocates a Linear layer's parameters as tracked tensors.
// Weights are left at whatever the allocator handed back (typically
// zero for a fresh slot); call XavierInit to initialize them.
func NewLinear(inDim, outDim int, allocators *pool.Allocators) (*Linear, error) {
	weights, err := allocators.Tensors.Alloc(inDim, outDim)
	if err != nil {
		return nil, err
	}
	bias, err := allocators.Tensors.Alloc(outDim, 1)
	if err != nil {
		return nil, err
	}
	return &Linear{Weights: weights, Bias: bias, allocators: allocators}, nil
}

// XavierInit samples the weight matrix uniformly in Xavier/Glorot
// bounds, matching linear_xavier_init. Biases are left unchanged.
func (l *Linear) XavierInit(r *rand.Rand) {
	rng.XavierUniform(l.Weights, l.Weights.Shape[0], l.Weights.Shape[1], r)
}

// Forward computes x @ Weights + Bias, tracked for backward.
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return ops.LinearForwardGraph(x, l.Weights, l.Bias, l.allocators)
}

// Parameters returns the layer's weights and bias, in that order.
func (l *Linear) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{l.Weights, l.Bias}
}
