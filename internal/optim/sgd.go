// Package optim implements parameter update rules for the training
// loop: stochastic gradient descent with optional momentum, operating
// directly on the flat float64 tensors the autograd engine produces.
package optim

import (
	"github.com/nicolamaritan/cgrad/internal/autodiff"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// Config holds SGD hyperparameters.
type Config struct {
	LR       float64 // learning rate
	Momentum float64 // momentum factor, range [0, 1); 0 disables it
}

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param -= lr * grad
//
// Update rule with momentum:
//
//	velocity = momentum*velocity + grad
//	param -= lr * velocity
type SGD struct {
	params     []*tensor.Tensor
	lr         float64
	momentum   float64
	velocities map[*tensor.Tensor]*tensor.Tensor
	allocators *pool.Allocators
}

// New builds an SGD optimizer over params. Velocity buffers are
// allocated lazily, on first Step, from allocators.
func New(params []*tensor.Tensor, cfg Config, allocators *pool.Allocators) *SGD {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         cfg.LR,
		momentum:   cfg.Momentum,
		velocities: make(map[*tensor.Tensor]*tensor.Tensor),
		allocators: allocators,
	}
}

// Step applies one update to every parameter that has an accumulated
// gradient. Parameters that never participated in the forward pass
// (Grad == nil) are left untouched.
func (s *SGD) Step() error {
	for _, p := range s.params {
		if p.Grad == nil {
			continue
		}
		if s.momentum == 0 {
			for i := range p.Data {
				p.Data[i] -= s.lr * p.Grad.Data[i]
			}
			continue
		}

		v, ok := s.velocities[p]
		if !ok {
			var err error
			v, err = s.allocators.Tensors.AllocNoGradZero(p.ShapeSlice()...)
			if err != nil {
				return err
			}
			s.velocities[p] = v
		}
		for i := range v.Data {
			v.Data[i] = s.momentum*v.Data[i] + p.Grad.Data[i]
		}
		for i := range p.Data {
			p.Data[i] -= s.lr * v.Data[i]
		}
	}
	return nil
}

// ZeroGrad clears every parameter's accumulated gradient.
func (s *SGD) ZeroGrad() {
	autodiff.ZeroGrad(s.params, s.allocators)
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate, e.g. for a decay schedule.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
