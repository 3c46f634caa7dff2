// Package optim re-exports the optimizer used to update model
// parameters from accumulated gradients.
package optim

import (
	"github.com/nicolamaritan/cgrad/internal/optim"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// Config holds SGD hyperparameters.
type Config = optim.Config

// SGD implements Stochastic Gradient Descent with optional momentum.
type SGD = optim.SGD

// New builds an SGD optimizer over params.
func New(params []*tensor.Tensor, cfg Config, allocators *pool.Allocators) *SGD {
	return optim.New(params, cfg, allocators)
}
