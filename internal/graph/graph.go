// Package graph maintains the computational DAG the autograd engine
// walks in reverse: one Node per gradient-tracked tensor, carrying an
// append-only list of outgoing Links to the tensors it helped produce.
package graph

import (
	"errors"

	"github.com/google/uuid"

	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// ErrMissingNode is returned by AddLink when the operand tensor has no
// attached node: an untracked tensor cannot participate in backward.
var ErrMissingNode = errors.New("graph: operand has no attached node")

// TensorAllocator is the capability a backward function needs to obtain
// scratch tensors. It is declared here (rather than importing package
// pool) so graph and its BackwardFunc signature stay independent of any
// particular allocator implementation; pool.TensorAllocator satisfies it
// structurally.
type TensorAllocator interface {
	Alloc(dims ...int) (*tensor.Tensor, error)
	AllocNoGrad(dims ...int) (*tensor.Tensor, error)
	AllocNoGradZero(dims ...int) (*tensor.Tensor, error)
	Free(t *tensor.Tensor)
	FreeNoGrad(t *tensor.Tensor)
}

// OperandSnapshot is the fixed-size, ordered tuple of operand tensors a
// consumer depended on, indexed by operand slot. Every link recorded for
// a given consumer shares one snapshot instance.
type OperandSnapshot [tensor.MaxOperands]*tensor.Tensor

// BackwardContext is what a BackwardFunc sees: the consumer's full
// operand snapshot (so e.g. matmul's backward wrt. the input can still
// read the weights) and an allocator for scratch tensors.
type BackwardContext struct {
	Operands  *OperandSnapshot
	Allocator TensorAllocator
}

// BackwardFunc computes the partial derivative of a consumer with
// respect to one specific operand, given the upstream gradient. It
// writes its result into gradIn; gradIn arrives zero-initialized.
type BackwardFunc func(ctx *BackwardContext, gradOut, gradIn *tensor.Tensor)

// Link is a recorded edge from an operand node to a consumer tensor.
type Link struct {
	Consumer     *tensor.Tensor
	OperandIndex int
	Backward     BackwardFunc
	Snapshot     *OperandSnapshot
}

// Node is the per-tracked-tensor record of outgoing edges in the DAG.
type Node struct {
	ID       uuid.UUID
	Tensor   *tensor.Tensor
	Outgoing []*Link

	// incoming is populated the moment this node is first targeted by
	// AddLink as a consumer. Links naming this node as consumer are
	// recorded on the *operand's* node (per spec §4.2), so there is
	// nothing to scan on the consumer side; the backward engine needs a
	// direct, indexed view of "what fed into me and how" to walk the DAG
	// without a full-graph scan, so it is cached here redundantly with
	// Outgoing.
	incoming incomingEdges
}

type incomingEdges struct {
	snapshot *OperandSnapshot
	backward [tensor.MaxOperands]BackwardFunc
}

// Edge is one resolved incoming edge of a consumer node: the operand
// tensor at a given slot and the backward rule that produces its
// gradient contribution.
type Edge struct {
	OperandIndex int
	Operand      *tensor.Tensor
	Backward     BackwardFunc
}

// Snapshot returns the full operand snapshot recorded for this node as
// consumer, or nil if nothing has linked to it yet. Backward rules use
// this to read sibling operands (e.g. matmul's backward wrt. the input
// still needs the weights).
func (n *Node) Snapshot() *OperandSnapshot {
	return n.incoming.snapshot
}

// Reset clears a node back to its zero-edge state, for reuse by a
// pool. It drops both the outgoing link list and the cached incoming
// edges (snapshot and per-slot backward closures); leaving incoming
// set would let a recycled node hand the backward engine phantom
// edges from whatever computation it served last time.
func (n *Node) Reset() {
	n.ID = uuid.UUID{}
	n.Tensor = nil
	n.Outgoing = n.Outgoing[:0]
	n.incoming = incomingEdges{}
}

// IncomingEdges returns this node's recorded incoming edges (this node
// as consumer), in slot order. Used by the backward engine to discover
// a node's operands without following any outgoing list.
func (n *Node) IncomingEdges() []Edge {
	if n.incoming.snapshot == nil {
		return nil
	}
	edges := make([]Edge, 0, tensor.MaxOperands)
	for i, operand := range n.incoming.snapshot {
		if operand == nil {
			continue
		}
		edges = append(edges, Edge{OperandIndex: i, Operand: operand, Backward: n.incoming.backward[i]})
	}
	return edges
}

// NodeOf returns the graph node attached to t, or nil if t is untracked.
func NodeOf(t *tensor.Tensor) *Node {
	if t == nil || t.Node == nil {
		return nil
	}
	return t.Node.(*Node)
}

// Attach records n as t's graph node, marking t as tracked.
func Attach(t *tensor.Tensor, n *Node) {
	n.Tensor = t
	t.Node = n
}

