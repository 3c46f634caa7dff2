package pool_test

import (
	"errors"
	"testing"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

func TestAllocReturnsTrackedTensor(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})

	x, err := allocators.Tensors.Alloc(2, 3)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !x.Tracked() {
		t.Fatal("Alloc should return a tracked tensor")
	}
	if x.Grad != nil {
		t.Fatal("Alloc should not eagerly create a gradient tensor")
	}
}

func TestAllocNoGradReturnsUntrackedTensor(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})

	x, err := allocators.Tensors.AllocNoGrad(4)
	if err != nil {
		t.Fatalf("AllocNoGrad: %v", err)
	}
	if x.Tracked() {
		t.Fatal("AllocNoGrad should return an untracked tensor")
	}
}

func TestAllocNoGradZeroZeroesBuffer(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})

	x, err := allocators.Tensors.AllocNoGradZero(3)
	if err != nil {
		t.Fatalf("AllocNoGradZero: %v", err)
	}
	for i, v := range x.Data {
		if v != 0 {
			t.Errorf("Data[%d] = %v, want 0", i, v)
		}
	}
}

func TestFreeRecyclesSlotAndDetachesNode(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})

	x, err := allocators.Tensors.Alloc(2, 2)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	before := allocators.Tensors.Stats()

	allocators.Tensors.Free(x)
	if x.Tracked() {
		t.Fatal("Free should detach the tensor's graph node")
	}

	y, err := allocators.Tensors.Alloc(2, 2)
	if err != nil {
		t.Fatalf("Alloc after free: %v", err)
	}
	after := allocators.Tensors.Stats()

	if x != y {
		t.Fatal("expected the freed slot to be recycled")
	}
	if after.Recycled != before.Recycled+1 {
		t.Errorf("Recycled = %d, want %d", after.Recycled, before.Recycled+1)
	}
}

func TestAllocResizesRecycledBufferForLargerShape(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})

	small, err := allocators.Tensors.Alloc(2)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	allocators.Tensors.Free(small)

	big, err := allocators.Tensors.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(big.Data) != 10 {
		t.Errorf("len(Data) = %d, want 10", len(big.Data))
	}
}

func TestBoundedPoolReturnsOutOfMemory(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{MaxSlots: 1})

	if _, err := allocators.Tensors.Alloc(1); err != nil {
		t.Fatalf("first Alloc: %v", err)
	}
	if _, err := allocators.Tensors.Alloc(1); !errors.Is(err, pool.ErrOutOfMemory) {
		t.Fatalf("second Alloc: got %v, want ErrOutOfMemory", err)
	}
}

func TestGraphNodeAllocatorRecyclesClearedNode(t *testing.T) {
	nodes := pool.NewGraphNodeAllocator(pool.Config{})

	n1, err := nodes.AllocNode()
	if err != nil {
		t.Fatalf("AllocNode: %v", err)
	}
	n1.Outgoing = append(n1.Outgoing, &graph.Link{})
	nodes.FreeNode(n1)

	n2, err := nodes.AllocNode()
	if err != nil {
		t.Fatalf("AllocNode: %v", err)
	}
	if n1 != n2 {
		t.Fatal("expected node to be recycled")
	}
	if len(n2.Outgoing) != 0 {
		t.Fatalf("recycled node should have empty outgoing list, got %d", len(n2.Outgoing))
	}
}

// TestGraphNodeAllocatorRecyclesClearedIncomingEdges guards against a
// node's second life inheriting the previous computation's operand
// snapshot: a node freed after serving as an AddLink consumer must, once
// recycled and before anything links to it again, report no snapshot and
// no incoming edges.
func TestGraphNodeAllocatorRecyclesClearedIncomingEdges(t *testing.T) {
	nodes := pool.NewGraphNodeAllocator(pool.Config{})

	operand := &tensor.Tensor{Data: []float64{1}, Rank: 1, Shape: [tensor.MaxRank]int{1}}
	n1, err := nodes.AllocNode()
	if err != nil {
		t.Fatalf("AllocNode: %v", err)
	}
	graph.Attach(operand, n1)

	consumer := &tensor.Tensor{Data: []float64{2}, Rank: 1, Shape: [tensor.MaxRank]int{1}}
	if err := graph.AddLink(operand, 0, consumer, nil, nodes); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	consumerNode := graph.NodeOf(consumer)
	nodes.FreeNode(consumerNode)

	n2, err := nodes.AllocNode()
	if err != nil {
		t.Fatalf("AllocNode: %v", err)
	}
	if n2 != consumerNode {
		t.Fatal("expected the freed consumer node to be recycled")
	}
	if n2.Snapshot() != nil {
		t.Fatal("recycled node should have a nil snapshot, got a stale one")
	}
	if len(n2.IncomingEdges()) != 0 {
		t.Fatalf("recycled node should report no incoming edges, got %d", len(n2.IncomingEdges()))
	}
}
