package graph_test

import (
	"errors"
	"testing"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// fakeAllocator is a minimal NodeAllocator for graph-package tests that
// don't need pool's recycling behavior.
type fakeAllocator struct{}

func (fakeAllocator) AllocNode() (*graph.Node, error) { return &graph.Node{}, nil }
func (fakeAllocator) AllocLink() (*graph.Link, error) { return &graph.Link{}, nil }

func trackedScalar() *tensor.Tensor {
	t := &tensor.Tensor{Data: []float64{0}, Rank: 1, Shape: [tensor.MaxRank]int{1}}
	graph.Attach(t, &graph.Node{})
	return t
}

func TestAddLinkRejectsUntrackedOperand(t *testing.T) {
	operand := &tensor.Tensor{Data: []float64{1}, Rank: 1, Shape: [tensor.MaxRank]int{1}}
	consumer := &tensor.Tensor{Data: []float64{1}, Rank: 1, Shape: [tensor.MaxRank]int{1}}

	err := graph.AddLink(operand, 0, consumer, nil, fakeAllocator{})
	if !errors.Is(err, graph.ErrMissingNode) {
		t.Fatalf("AddLink on untracked operand: got %v, want ErrMissingNode", err)
	}
}

func TestAddLinkTracksConsumerAndRecordsEdge(t *testing.T) {
	operand := trackedScalar()
	consumer := &tensor.Tensor{Data: []float64{2}, Rank: 1, Shape: [tensor.MaxRank]int{1}}

	if consumer.Tracked() {
		t.Fatal("consumer should start untracked")
	}

	if err := graph.AddLink(operand, 0, consumer, nil, fakeAllocator{}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	if !consumer.Tracked() {
		t.Fatal("consumer should be tracked after AddLink")
	}

	operandNode := graph.NodeOf(operand)
	if len(operandNode.Outgoing) != 1 {
		t.Fatalf("operand outgoing links = %d, want 1", len(operandNode.Outgoing))
	}
	link := operandNode.Outgoing[0]
	if link.Consumer != consumer || link.OperandIndex != 0 {
		t.Errorf("unexpected link: consumer=%v operandIndex=%d", link.Consumer, link.OperandIndex)
	}
	if link.Snapshot[0] != operand {
		t.Errorf("snapshot[0] = %v, want operand", link.Snapshot[0])
	}
}

func TestAddLinkSharesSnapshotAcrossOperandsOfSameConsumer(t *testing.T) {
	lhs := trackedScalar()
	rhs := trackedScalar()
	consumer := &tensor.Tensor{Data: []float64{0}, Rank: 1, Shape: [tensor.MaxRank]int{1}}

	if err := graph.AddLink(lhs, 0, consumer, nil, fakeAllocator{}); err != nil {
		t.Fatalf("AddLink lhs: %v", err)
	}
	if err := graph.AddLink(rhs, 1, consumer, nil, fakeAllocator{}); err != nil {
		t.Fatalf("AddLink rhs: %v", err)
	}

	lhsLink := graph.NodeOf(lhs).Outgoing[0]
	rhsLink := graph.NodeOf(rhs).Outgoing[0]

	if lhsLink.Snapshot != rhsLink.Snapshot {
		t.Fatal("expected both operands' links to share one snapshot instance")
	}
	if lhsLink.Snapshot[0] != lhs || lhsLink.Snapshot[1] != rhs {
		t.Errorf("shared snapshot = %v, want [lhs, rhs]", lhsLink.Snapshot)
	}
}

func TestAddLinkAppendsInCallOrder(t *testing.T) {
	operand := trackedScalar()
	c1 := &tensor.Tensor{Data: []float64{0}, Rank: 1, Shape: [tensor.MaxRank]int{1}}
	c2 := &tensor.Tensor{Data: []float64{0}, Rank: 1, Shape: [tensor.MaxRank]int{1}}

	if err := graph.AddLink(operand, 0, c1, nil, fakeAllocator{}); err != nil {
		t.Fatalf("AddLink c1: %v", err)
	}
	if err := graph.AddLink(operand, 0, c2, nil, fakeAllocator{}); err != nil {
		t.Fatalf("AddLink c2: %v", err)
	}

	outgoing := graph.NodeOf(operand).Outgoing
	if len(outgoing) != 2 || outgoing[0].Consumer != c1 || outgoing[1].Consumer != c2 {
		t.Fatalf("outgoing links out of order: %+v", outgoing)
	}
}
