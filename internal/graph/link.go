package graph

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// NodeAllocator is the capability AddLink needs to grow the graph: a
// recycled or freshly allocated Node for a newly-tracked consumer, and a
// recycled or freshly allocated Link record for the new edge. Declared
// here rather than importing package pool for the same reason as
// TensorAllocator above.
type NodeAllocator interface {
	AllocNode() (*Node, error)
	AllocLink() (*Link, error)
}

// AddLink records that operand contributed to consumer at operand slot
// operandIndex, via the given backward rule.
//
// Contract (spec §4.2):
//  1. operand must already be tracked; otherwise ErrMissingNode.
//  2. consumer is tracked on first link, if not already.
//  3. The first link added to consumer allocates a fresh, all-nil
//     snapshot; later links to the same consumer reuse it.
//  4. snapshot[operandIndex] is (re)written with operand — idempotent.
//  5. A Link{consumer, operandIndex, backward, snapshot} is appended to
//     operand's outgoing list, in call order.
func AddLink(operand *tensor.Tensor, operandIndex int, consumer *tensor.Tensor, backward BackwardFunc, allocators NodeAllocator) error {
	operandNode := NodeOf(operand)
	if operandNode == nil {
		return pkgerrors.Wrapf(ErrMissingNode, "graph: operand slot %d", operandIndex)
	}

	consumerNode := NodeOf(consumer)
	if consumerNode == nil {
		var err error
		consumerNode, err = allocators.AllocNode()
		if err != nil {
			return pkgerrors.Wrapf(err, "graph: alloc consumer node for operand slot %d", operandIndex)
		}
		Attach(consumer, consumerNode)
	}

	snapshot := consumerNode.incoming.snapshot
	if snapshot == nil {
		snapshot = &OperandSnapshot{}
		consumerNode.incoming.snapshot = snapshot
	}
	snapshot[operandIndex] = operand
	consumerNode.incoming.backward[operandIndex] = backward

	link, err := allocators.AllocLink()
	if err != nil {
		return pkgerrors.Wrapf(err, "graph: alloc link for operand slot %d", operandIndex)
	}
	link.Consumer = consumer
	link.OperandIndex = operandIndex
	link.Backward = backward
	link.Snapshot = snapshot

	operandNode.Outgoing = append(operandNode.Outgoing, link)
	return nil
}
