// Package nn re-exports the layer building blocks used to assemble a
// training model: Linear, ReLU and Sequential.
package nn

import (
	"github.com/nicolamaritan/cgrad/internal/nn"
	"github.com/nicolamaritan/cgrad/internal/pool"
)

// Layer is the base interface every network component implements.
type Layer = nn.Layer

// Linear is a fully connected layer y = x @ weights + bias.
type Linear = nn.Linear

// NewLinear allocates a Linear layer's parameters as tracked tensors.
func NewLinear(inDim, outDim int, allocators *pool.Allocators) (*Linear, error) {
	return nn.NewLinear(inDim, outDim, allocators)
}

// ReLU is a parameter-free activation layer.
type ReLU = nn.ReLU

// NewReLU builds a ReLU layer backed by allocators.
func NewReLU(allocators *pool.Allocators) *ReLU {
	return nn.NewReLU(allocators)
}

// Sequential chains layers, feeding each one's output to the next.
type Sequential = nn.Sequential

// NewSequential builds a Sequential from the given layers, in order.
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}
