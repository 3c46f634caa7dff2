// Package nn implements the layer abstractions built on top of the
// Operator Adapter Layer: Linear and ReLU, each holding the parameters
// (if any) an optimizer needs to see, mirroring linear_layer/relu from
// the original C library and the teacher's Module interface shape.
package nn

import "github.com/nicolamaritan/cgrad/internal/tensor"

// Layer is the base interface every network component implements:
// compute an output from an input, and expose whatever trainable
// parameters it owns so the training loop can collect them for the
// optimizer.
type Layer interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []*tensor.Tensor
}
