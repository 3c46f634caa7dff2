package ops

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// MatMul operand slots.
const (
	MatMulLeft  = 0
	MatMulRight = 1
)

// MatMulForward computes out = left @ right for rank-2 tensors, into a
// pre-shaped (left.rows, right.cols) out.
func MatMulForward(left, right, out *tensor.Tensor) error {
	if err := tensor.CheckNil(left); err != nil {
		return err
	}
	if err := tensor.CheckNil(right); err != nil {
		return err
	}
	if err := tensor.CheckNil(out); err != nil {
		return err
	}
	if left.Rank != 2 || right.Rank != 2 {
		return pkgerrors.Wrapf(tensor.ErrWrongShape, "matmul: left=%v right=%v", left.ShapeSlice(), right.ShapeSlice())
	}
	if left.Shape[1] != right.Shape[0] {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "matmul: left=%v right=%v", left.ShapeSlice(), right.ShapeSlice())
	}
	if out.Shape[0] != left.Shape[0] || out.Shape[1] != right.Shape[1] {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "matmul: out=%v want=[%d %d]", out.ShapeSlice(), left.Shape[0], right.Shape[1])
	}

	m, k, n := left.Shape[0], left.Shape[1], right.Shape[1]
	matMulUnchecked(left.Data, right.Data, out.Data, m, k, n)
	return nil
}

func matMulUnchecked(left, right, out []float64, m, k, n int) {
	for i := 0; i < m; i++ {
		outRow := out[i*n : i*n+n]
		for j := range outRow {
			outRow[j] = 0
		}
		leftRow := left[i*k : i*k+k]
		for p := 0; p < k; p++ {
			lv := leftRow[p]
			if lv == 0 {
				continue
			}
			rightRow := right[p*n : p*n+n]
			for j := 0; j < n; j++ {
				outRow[j] += lv * rightRow[j]
			}
		}
	}
}

// MatMulForwardGraph runs MatMulForward and records both backward
// links: dL/dLeft = dL/dOut @ right^T, dL/dRight = left^T @ dL/dOut.
func MatMulForwardGraph(left, right *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(left.Shape[0], right.Shape[1])
	if err != nil {
		return nil, err
	}
	if err := MatMulForward(left, right, out); err != nil {
		return nil, err
	}
	if err := graph.AddLink(left, MatMulLeft, out, matMulBackwardLeft, allocators.Nodes); err != nil {
		return nil, err
	}
	if err := graph.AddLink(right, MatMulRight, out, matMulBackwardRight, allocators.Nodes); err != nil {
		return nil, err
	}
	return out, nil
}

// matMulBackwardLeft mirrors linear_backpropagate_input: transpose the
// other operand into allocator-owned scratch, then multiply.
func matMulBackwardLeft(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	right := ctx.Operands[MatMulRight]
	rightT, err := ctx.Allocator.AllocNoGrad(right.Shape[1], right.Shape[0])
	if err != nil {
		panic(err)
	}
	transposeUnchecked(right, rightT)
	matMulUnchecked(gradOut.Data, rightT.Data, gradIn.Data, gradOut.Shape[0], right.Shape[1], right.Shape[0])
	ctx.Allocator.FreeNoGrad(rightT)
}

func matMulBackwardRight(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
	left := ctx.Operands[MatMulLeft]
	leftT, err := ctx.Allocator.AllocNoGrad(left.Shape[1], left.Shape[0])
	if err != nil {
		panic(err)
	}
	transposeUnchecked(left, leftT)
	matMulUnchecked(leftT.Data, gradOut.Data, gradIn.Data, left.Shape[1], left.Shape[0], gradOut.Shape[1])
	ctx.Allocator.FreeNoGrad(leftT)
}
