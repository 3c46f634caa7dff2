package pool

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// TensorAllocator hands out tracked and untracked tensors from two
// independent free lists, resizing a recycled buffer only when its
// cached capacity is too small for the requested shape — it never
// splits or fragments a slot.
type TensorAllocator struct {
	nodes *GraphNodeAllocator

	freeTracked   []*tensor.Tensor
	freeUntracked []*tensor.Tensor

	maxSlots  int
	liveCount int
	stats     Stats
}

// NewTensorAllocator builds a tensor pool backed by nodes for attaching
// graph nodes to tracked allocations.
func NewTensorAllocator(cfg Config, nodes *GraphNodeAllocator) *TensorAllocator {
	return &TensorAllocator{
		nodes:         nodes,
		freeTracked:   make([]*tensor.Tensor, 0, cfg.InitialTensors),
		freeUntracked: make([]*tensor.Tensor, 0, cfg.InitialTensors),
		maxSlots:      cfg.MaxSlots,
	}
}

// Alloc returns a tracked tensor of the given shape (a graph node is
// attached; Grad is left nil and created lazily on first accumulation).
func (p *TensorAllocator) Alloc(dims ...int) (*tensor.Tensor, error) {
	t, err := p.take(&p.freeTracked, dims...)
	if err != nil {
		return nil, err
	}
	node, err := p.nodes.AllocNode()
	if err != nil {
		p.freeTracked = append(p.freeTracked, t)
		return nil, pkgerrors.Wrapf(err, "pool: attach node for shape %v", dims)
	}
	graph.Attach(t, node)
	return t, nil
}

// AllocNoGrad returns an untracked tensor of the given shape, its
// buffer left with whatever values a recycled slot happened to have.
func (p *TensorAllocator) AllocNoGrad(dims ...int) (*tensor.Tensor, error) {
	return p.take(&p.freeUntracked, dims...)
}

// AllocNoGradZero returns an untracked, zero-initialized tensor. Used
// for gradient accumulators, which must start at zero before summation.
func (p *TensorAllocator) AllocNoGradZero(dims ...int) (*tensor.Tensor, error) {
	t, err := p.AllocNoGrad(dims...)
	if err != nil {
		return nil, err
	}
	tensor.Fill(t, 0)
	return t, nil
}

// Free returns a tracked tensor to the pool. Its node and gradient are
// detached so a future recycled use starts from a clean slate.
func (p *TensorAllocator) Free(t *tensor.Tensor) {
	if t == nil {
		return
	}
	if node := graph.NodeOf(t); node != nil {
		p.nodes.FreeNode(node)
	}
	t.Node = nil
	t.Grad = nil
	p.liveCount--
	p.freeTracked = append(p.freeTracked, t)
}

// FreeNoGrad returns an untracked tensor to the pool.
func (p *TensorAllocator) FreeNoGrad(t *tensor.Tensor) {
	if t == nil {
		return
	}
	p.liveCount--
	p.freeUntracked = append(p.freeUntracked, t)
}

// Stats reports this allocator's activity.
func (p *TensorAllocator) Stats() Stats {
	s := p.stats
	s.Live = p.liveCount
	return s
}

func (p *TensorAllocator) take(free *[]*tensor.Tensor, dims ...int) (*tensor.Tensor, error) {
	shape, rank, err := tensor.NewShape(dims...)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "pool: shape %v", dims)
	}
	n := 1
	for i := 0; i < rank; i++ {
		n *= shape[i]
	}

	if len(*free) > 0 {
		last := len(*free) - 1
		t := (*free)[last]
		*free = (*free)[:last]
		if cap(t.Data) < n {
			t.Data = make([]float64, n)
		} else {
			t.Data = t.Data[:n]
		}
		t.Shape = shape
		t.Rank = rank
		p.stats.Allocated++
		p.stats.Recycled++
		p.liveCount++
		return t, nil
	}

	if p.maxSlots > 0 && p.liveCount >= p.maxSlots {
		return nil, pkgerrors.Wrapf(ErrOutOfMemory, "pool: tensor slot budget %d exhausted, requested shape %v", p.maxSlots, dims)
	}

	t := &tensor.Tensor{Data: make([]float64, n), Shape: shape, Rank: rank}
	p.stats.Allocated++
	p.stats.Grown++
	p.liveCount++
	return t, nil
}
