package nn

import (
	"github.com/nicolamaritan/cgrad/internal/ops"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// ReLU is a parameter-free activation layer.
type ReLU struct {
	allocators *pool.Allocators
}

// NewReLU builds a ReLU layer backed by allocators.
func NewReLU(allocators *pool.Allocators) *ReLU {
	return &ReLU{allocators: allocators}
}

func (r *ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return ops.ReLUForwardGraph(x, r.allocators)
}

// Parameters returns nil: ReLU has nothing for the optimizer to update.
func (r *ReLU) Parameters() []*tensor.Tensor {
	return nil
}
