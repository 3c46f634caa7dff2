// Package autodiff re-exports the Backpropagation Engine: walking a
// tracked tensor's computational graph backward to accumulate
// per-operand gradients.
package autodiff

import (
	"github.com/nicolamaritan/cgrad/internal/autodiff"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// ErrInvalidRoot is returned when Backward is called on a nil or
// untracked tensor.
var ErrInvalidRoot = autodiff.ErrInvalidRoot

// Backward walks root's computational graph backward, accumulating
// gradients into every operand's Grad field. If root has no gradient
// yet, it is seeded with all-ones.
func Backward(root *tensor.Tensor, allocators *pool.Allocators) error {
	return autodiff.Backward(root, allocators)
}

// ZeroGrad clears the accumulated gradient of every parameter, freeing
// it back to allocators.
func ZeroGrad(params []*tensor.Tensor, allocators *pool.Allocators) {
	autodiff.ZeroGrad(params, allocators)
}
