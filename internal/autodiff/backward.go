// Package autodiff implements the Backpropagation Engine: given a root
// tensor produced by a chain of tracked operations, it walks the
// computational DAG in reverse and accumulates gradients into every
// tensor that contributed to the root.
package autodiff

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// ErrInvalidRoot is returned by Backward when root is nil or untracked:
// there is no graph to walk.
var ErrInvalidRoot = errors.New("autodiff: root is nil or untracked")

// Backward seeds root's gradient (1.0 for a scalar, all-ones broadcast
// for a non-scalar root — spec's resolution of the "what does dL/dL
// mean for a tensor loss" open question) and accumulates gradients into
// every tensor reachable from root via operand edges.
//
// The graph is provably acyclic (spec §4.2 invariant), so a plain
// DFS-postorder over operand edges, processed in reverse, is enough to
// guarantee every node's gradient is fully accumulated (all of its
// consumers already visited) before it forwards its own contributions
// to its operands. This is the micrograd-style topological-sort
// traversal, adapted from an outgoing-edge walk to an incoming-edge
// walk since the root itself has no outgoing edges to start from.
func Backward(root *tensor.Tensor, allocators *pool.Allocators) error {
	rootNode := graph.NodeOf(root)
	if root == nil || rootNode == nil {
		return ErrInvalidRoot
	}

	if root.Grad == nil {
		seed, err := allocators.Tensors.AllocNoGrad(root.ShapeSlice()...)
		if err != nil {
			return pkgerrors.Wrap(err, "autodiff: seed gradient")
		}
		tensor.Fill(seed, 1)
		root.Grad = seed
	}

	order := topoOrder(rootNode)
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		consumer := node.Tensor
		if consumer.Grad == nil {
			continue
		}

		for _, edge := range node.IncomingEdges() {
			gradIn, err := allocators.Tensors.AllocNoGradZero(edge.Operand.ShapeSlice()...)
			if err != nil {
				return pkgerrors.Wrap(err, "autodiff: operand gradient scratch")
			}

			ctx := &graph.BackwardContext{Operands: node.Snapshot(), Allocator: allocators.Tensors}
			edge.Backward(ctx, consumer.Grad, gradIn)

			if edge.Operand.Grad == nil {
				accum, err := allocators.Tensors.AllocNoGradZero(edge.Operand.ShapeSlice()...)
				if err != nil {
					return pkgerrors.Wrap(err, "autodiff: gradient accumulator")
				}
				edge.Operand.Grad = accum
			}
			tensor.AddInplaceUnchecked(edge.Operand.Grad, gradIn)
			allocators.Tensors.FreeNoGrad(gradIn)
		}
	}
	return nil
}

// ZeroGrad clears the gradient accumulator on every given tensor,
// returning the freed scratch tensors to allocators. Tensors with no
// gradient yet (never backward'd through) are skipped.
func ZeroGrad(params []*tensor.Tensor, allocators *pool.Allocators) {
	for _, p := range params {
		if p == nil || p.Grad == nil {
			continue
		}
		allocators.Tensors.FreeNoGrad(p.Grad)
		p.Grad = nil
	}
}

// frame is one entry of topoOrder's explicit DFS stack: a node together
// with how far through its incoming edges the walk has progressed.
type frame struct {
	node  *graph.Node
	edges []graph.Edge
	next  int
}

// topoOrder returns root's node together with every node reachable from
// it via operand (incoming) edges, in DFS-postorder: a node appears only
// after all of the nodes it depends on. The walk uses an explicit stack
// rather than recursion so a deep computational graph (a long chain of
// layers, or an unrolled loop) cannot overflow the goroutine stack.
// Marking a node visited before pushing its children is safe because
// the graph is acyclic, so no node is ever pending on its own ancestor.
func topoOrder(root *graph.Node) []*graph.Node {
	visited := make(map[*graph.Node]bool)
	var order []*graph.Node

	visited[root] = true
	stack := []frame{{node: root, edges: root.IncomingEdges()}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.edges) {
			order = append(order, top.node)
			stack = stack[:len(stack)-1]
			continue
		}

		edge := top.edges[top.next]
		top.next++
		operandNode := graph.NodeOf(edge.Operand)
		if operandNode == nil || visited[operandNode] {
			continue
		}
		visited[operandNode] = true
		stack = append(stack, frame{node: operandNode, edges: operandNode.IncomingEdges()})
	}
	return order
}
