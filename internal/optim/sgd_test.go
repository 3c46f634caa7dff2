package optim_test

import (
	"math"
	"testing"

	"github.com/nicolamaritan/cgrad/internal/optim"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

func TestStepWithoutMomentum(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	p, err := allocators.Tensors.Alloc(1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p.Data[0] = 10
	p.Grad, err = allocators.Tensors.AllocNoGrad(1)
	if err != nil {
		t.Fatalf("AllocNoGrad: %v", err)
	}
	p.Grad.Data[0] = 2

	sgd := optim.New([]*tensor.Tensor{p}, optim.Config{LR: 0.5}, allocators)
	if err := sgd.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if p.Data[0] != 9 {
		t.Errorf("p.Data[0] = %v, want 9", p.Data[0])
	}
}

func TestStepWithMomentumAccumulatesVelocity(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	p, err := allocators.Tensors.Alloc(1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p.Data[0] = 0

	sgd := optim.New([]*tensor.Tensor{p}, optim.Config{LR: 1, Momentum: 0.9}, allocators)

	p.Grad, _ = allocators.Tensors.AllocNoGrad(1)
	p.Grad.Data[0] = 1
	if err := sgd.Step(); err != nil {
		t.Fatalf("first Step: %v", err)
	}
	// v1 = 0.9*0 + 1 = 1; p -= 1*1 => -1
	if math.Abs(p.Data[0]-(-1)) > 1e-12 {
		t.Fatalf("p after step 1 = %v, want -1", p.Data[0])
	}

	p.Grad, _ = allocators.Tensors.AllocNoGrad(1)
	p.Grad.Data[0] = 1
	if err := sgd.Step(); err != nil {
		t.Fatalf("second Step: %v", err)
	}
	// v2 = 0.9*1 + 1 = 1.9; p -= 1*1.9 => -2.9
	if math.Abs(p.Data[0]-(-2.9)) > 1e-9 {
		t.Fatalf("p after step 2 = %v, want -2.9", p.Data[0])
	}
}

func TestStepSkipsParameterWithNoGradient(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	p, err := allocators.Tensors.Alloc(1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p.Data[0] = 5

	sgd := optim.New([]*tensor.Tensor{p}, optim.Config{LR: 1}, allocators)
	if err := sgd.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if p.Data[0] != 5 {
		t.Errorf("p.Data[0] = %v, want unchanged 5", p.Data[0])
	}
}

func TestZeroGradClearsAllParams(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	p, err := allocators.Tensors.Alloc(1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p.Grad, _ = allocators.Tensors.AllocNoGrad(1)

	sgd := optim.New([]*tensor.Tensor{p}, optim.Config{}, allocators)
	sgd.ZeroGrad()
	if p.Grad != nil {
		t.Fatal("expected grad cleared")
	}
}
