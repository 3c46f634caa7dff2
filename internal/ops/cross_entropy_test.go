package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolamaritan/cgrad/internal/autodiff"
	"github.com/nicolamaritan/cgrad/internal/ops"
	"github.com/nicolamaritan/cgrad/internal/pool"
)

func TestCrossEntropyLossValue(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	logits, _ := allocators.Tensors.Alloc(2, 2)
	copy(logits.Data, []float64{1, 2, 0, 0})
	targets, err := allocators.Tensors.AllocNoGrad(2, 1)
	require.NoError(t, err)
	copy(targets.Data, []float64{1, 0})

	loss, err := ops.CrossEntropyForwardGraph(logits, targets, allocators)
	require.NoError(t, err)
	assert.InDelta(t, 0.503204434, loss.Data[0], 1e-6)
}

// TestCrossEntropyBackwardWithUntrackedTargets exercises the exact
// shape of the cmd/cgrad-train training loop: targets is an untracked
// label tensor (no graph node of its own), and Backward is called
// right after the forward pass. This must not panic.
func TestCrossEntropyBackwardWithUntrackedTargets(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	logits, _ := allocators.Tensors.Alloc(2, 2)
	copy(logits.Data, []float64{1, 2, 0, 0})
	targets, err := allocators.Tensors.AllocNoGrad(2, 1)
	require.NoError(t, err)
	copy(targets.Data, []float64{1, 0})

	loss, err := ops.CrossEntropyForwardGraph(logits, targets, allocators)
	require.NoError(t, err)
	require.NoError(t, autodiff.Backward(loss, allocators))

	want := []float64{0.134470711, -0.134470711, -0.25, 0.25}
	for i, w := range want {
		assert.InDelta(t, w, logits.Grad.Data[i], 1e-6, "logits.Grad[%d]", i)
	}
}

func TestCrossEntropyRejectsMismatchedBatchSize(t *testing.T) {
	allocators := pool.NewAllocators(pool.Config{})
	logits, _ := allocators.Tensors.Alloc(2, 2)
	targets, _ := allocators.Tensors.AllocNoGrad(3, 1)

	_, err := ops.CrossEntropyForwardGraph(logits, targets, allocators)
	assert.Error(t, err)
}
