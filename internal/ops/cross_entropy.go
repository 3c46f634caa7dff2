package ops

import (
	"math"

	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
	"github.com/nicolamaritan/cgrad/internal/pool"
	"github.com/nicolamaritan/cgrad/internal/tensor"
)

// CrossEntropy operand slots.
const (
	CrossEntropyLogits  = 0
	CrossEntropyTargets = 1
)

// CrossEntropyForward computes the mean softmax cross-entropy between
// logits (batch, classes) and targets, a (batch, 1) column vector of
// class indices encoded as float64:
//
//	out = (1/batch) * sum_i -log(softmax(logits[i])[target[i]])
//
// This is not present in the original C library (only its header
// survived retrieval), so the softmax is implemented with the standard
// max-subtraction trick for numerical stability rather than translated
// from a reference.
func CrossEntropyForward(logits, targets, out *tensor.Tensor) error {
	if err := tensor.CheckNil(logits); err != nil {
		return err
	}
	if err := tensor.CheckNil(targets); err != nil {
		return err
	}
	if err := tensor.CheckNil(out); err != nil {
		return err
	}
	if logits.Rank != 2 {
		return pkgerrors.Wrapf(tensor.ErrWrongShape, "cross entropy: logits=%v, want rank 2", logits.ShapeSlice())
	}
	if targets.Rank != 2 || targets.Shape[1] != 1 || targets.Shape[0] != logits.Shape[0] {
		return pkgerrors.Wrapf(tensor.ErrShapeMismatch, "cross entropy: logits=%v targets=%v", logits.ShapeSlice(), targets.ShapeSlice())
	}

	batch, classes := logits.Shape[0], logits.Shape[1]
	sum := 0.0
	for i := 0; i < batch; i++ {
		row := logits.Data[i*classes : i*classes+classes]
		maxLogit := row[0]
		for _, v := range row {
			if v > maxLogit {
				maxLogit = v
			}
		}
		denom := 0.0
		for _, v := range row {
			denom += math.Exp(v - maxLogit)
		}
		target := int(targets.Data[i])
		logProb := (row[target] - maxLogit) - math.Log(denom)
		sum += -logProb
	}
	out.Data[0] = sum / float64(batch)
	return nil
}

// CrossEntropyForwardGraph runs CrossEntropyForward and records the
// backward link wrt. logits: dL/dlogits[i][j] = (softmax[i][j] -
// 1[j==target_i]) / batch. Targets are treated as constants: rather
// than going through AddLink (which requires a tracked operand, and
// targets are typically an untracked label tensor), targets is closed
// over directly so the CrossEntropyTargets slot never has to be
// resolved through the consumer's operand snapshot.
func CrossEntropyForwardGraph(logits, targets *tensor.Tensor, allocators *pool.Allocators) (*tensor.Tensor, error) {
	out, err := allocators.Tensors.Alloc(1)
	if err != nil {
		return nil, err
	}
	if err := CrossEntropyForward(logits, targets, out); err != nil {
		return nil, err
	}
	backward := func(ctx *graph.BackwardContext, gradOut, gradIn *tensor.Tensor) {
		crossEntropyBackwardLogits(ctx, targets, gradOut, gradIn)
	}
	if err := graph.AddLink(logits, CrossEntropyLogits, out, backward, allocators.Nodes); err != nil {
		return nil, err
	}
	return out, nil
}

func crossEntropyBackwardLogits(ctx *graph.BackwardContext, targets, gradOut, gradIn *tensor.Tensor) {
	logits := ctx.Operands[CrossEntropyLogits]
	batch, classes := logits.Shape[0], logits.Shape[1]
	upstream := gradOut.Data[0] / float64(batch)

	for i := 0; i < batch; i++ {
		row := logits.Data[i*classes : i*classes+classes]
		maxLogit := row[0]
		for _, v := range row {
			if v > maxLogit {
				maxLogit = v
			}
		}
		denom := 0.0
		for _, v := range row {
			denom += math.Exp(v - maxLogit)
		}
		target := int(targets.Data[i])
		for j := 0; j < classes; j++ {
			softmax := math.Exp(row[j]-maxLogit) / denom
			indicator := 0.0
			if j == target {
				indicator = 1.0
			}
			gradIn.Data[i*classes+j] = upstream * (softmax - indicator)
		}
	}
}
