// Package tensor re-exports the dense float64 tensor container that
// the autograd engine tracks, plus the pooled allocators that produce
// it. Kept as a thin alias layer over internal/tensor and internal/pool
// so callers outside this module get a stable, minimal surface while
// the engine internals stay free to change.
package tensor

import (
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

const (
	MaxRank     = tensor.MaxRank
	MaxOperands = tensor.MaxOperands
)

// Tensor is a dense, contiguous, row-major float64 array with optional
// gradient tracking.
type Tensor = tensor.Tensor

// Allocators is the Allocator Pair: a pooled tensor allocator and a
// pooled graph node/link allocator.
type Allocators = pool.Allocators

// Config controls pool growth for a fresh Allocators.
type Config = pool.Config

// Stats reports pool activity: how many allocations were served from
// the free list versus required fresh heap growth.
type Stats = pool.Stats

// ErrOutOfMemory is returned once a bounded pool has exhausted both its
// free list and its slot budget.
var ErrOutOfMemory = pool.ErrOutOfMemory

// NewAllocators builds a fresh Allocator Pair from cfg.
func NewAllocators(cfg Config) *Allocators {
	return pool.NewAllocators(cfg)
}

// SameShape reports whether a and b have identical rank and dimensions.
func SameShape(a, b *Tensor) bool {
	return tensor.SameShape(a, b)
}

// Fill sets every element of t to value.
func Fill(t *Tensor, value float64) {
	tensor.Fill(t, value)
}
