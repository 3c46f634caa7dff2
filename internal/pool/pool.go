// Package pool implements the Allocator Pair: a tensor_allocator and a
// graph_node_allocator, each backed by a free-list-based object pool
// that recycles tensors and graph nodes/links instead of returning them
// to the garbage collector.
//
// Grounded in internal/backend/webgpu.BufferPool's size-bucketed
// free-list, generalized from GPU buffers keyed by byte size to
// *tensor.Tensor / *graph.Node objects keyed by element-count capacity,
// and simplified to one free list per allocator since these objects are
// not bucketed by size class.
//
// Neither TensorAllocator nor GraphNodeAllocator is safe for concurrent
// use: free lists and stats counters are plain slices and fields with
// no locking. Two goroutines training disjoint models must each own a
// separate Allocators built from a separate NewAllocators call; sharing
// one Allocators across goroutines needs external synchronization.
package pool

import "errors"

// ErrOutOfMemory is returned once a bounded pool (Config.MaxSlots > 0)
// has exhausted both its free list and its slot budget.
var ErrOutOfMemory = errors.New("pool: out of memory")

// Config controls pool growth. Zero values mean "start empty, grow
// unbounded" — matching spec's "only user-visible effect is the
// frequency of underlying heap growth."
type Config struct {
	InitialTensors int
	InitialNodes   int
	InitialLinks   int

	// MaxSlots bounds the total number of live (allocated, unfree'd)
	// objects a pool will hand out. 0 means unbounded. The limit applies
	// separately to live tensors, live nodes and live links.
	MaxSlots int
}

// Stats reports pool activity, matching the "frequency of heap growth"
// observability spec.md calls out as the pool's only user-visible
// dimension.
type Stats struct {
	Allocated uint64 // total Alloc/AllocNode/AllocLink calls served
	Recycled  uint64 // served from the free list, no new allocation
	Grown     uint64 // required a fresh Go allocation
	Live      int    // currently outstanding (allocated, not yet freed)
}

// Allocators bundles the tensor and graph-node/link allocators that
// every autograd entry point threads through explicitly — there is no
// global mutable state.
type Allocators struct {
	Tensors *TensorAllocator
	Nodes   *GraphNodeAllocator
}

// NewAllocators builds a fresh Allocator Pair from cfg. The tensor
// allocator holds a reference to the node allocator because
// TensorAllocator.Alloc must attach a fresh graph node to every tensor
// it returns (spec §4.1: "alloc(shape) → tensor — returns a tracked
// tensor").
func NewAllocators(cfg Config) *Allocators {
	nodes := NewGraphNodeAllocator(cfg)
	tensors := NewTensorAllocator(cfg, nodes)
	return &Allocators{Tensors: tensors, Nodes: nodes}
}
