// Command cgrad-train trains a two-layer MLP classifier on a CSV
// dataset, standing in for examples/mlp_mnist_classification_example.c
// from the original C library.
package main

import (
	"flag"
	"math/rand/v2"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/nicolamaritan/cgrad/autodiff"
	"github.com/nicolamaritan/cgrad/data"
	"github.com/nicolamaritan/cgrad/internal/ops"
	"github.com/nicolamaritan/cgrad/nn"
	"github.com/nicolamaritan/cgrad/optim"
	"github.com/nicolamaritan/cgrad/tensor"
)

func main() {
	klog.InitFlags(nil)

	var (
		csvPath    = flag.String("csv", "", "path to a labeled training CSV (column 0 = class index)")
		hiddenDim  = flag.Int("hidden", 64, "hidden layer width")
		batchSize  = flag.Int("batch", 32, "batch size")
		epochs     = flag.Int("epochs", 1, "number of passes over the dataset")
		lr         = flag.Float64("lr", 3e-4, "learning rate")
		momentum   = flag.Float64("momentum", 0.9, "SGD momentum")
		seed       = flag.Uint64("seed", 42, "RNG seed for weight init and shuffling")
		outputFreq = flag.Int("log-every", 25, "iterations between loss log lines")
	)
	flag.Parse()
	defer klog.Flush()

	if *csvPath == "" {
		klog.Error("cgrad-train: -csv is required")
		os.Exit(1)
	}

	if err := run(*csvPath, *hiddenDim, *batchSize, *epochs, *lr, *momentum, *seed, *outputFreq); err != nil {
		klog.Errorf("cgrad-train: %v", err)
		os.Exit(1)
	}
}

func run(csvPath string, hiddenDim, batchSize, epochs int, lr, momentum float64, seed uint64, outputFreq int) error {
	dataset, err := data.LoadCSV(csvPath)
	if err != nil {
		return err
	}
	dataset.StandardScale()
	klog.Infof("loaded %s samples, %d features", humanize.Comma(int64(dataset.Rows())), dataset.Cols)

	r := rand.New(rand.NewPCG(seed, seed))
	numClasses := countClasses(dataset.Labels)

	allocators := tensor.NewAllocators(tensor.Config{})
	layer1, err := nn.NewLinear(dataset.Cols, hiddenDim, allocators)
	if err != nil {
		return err
	}
	layer1.XavierInit(r)
	layer2, err := nn.NewLinear(hiddenDim, numClasses, allocators)
	if err != nil {
		return err
	}
	layer2.XavierInit(r)

	model := nn.NewSequential(layer1, nn.NewReLU(allocators), layer2)
	sgd := optim.New(model.Parameters(), optim.Config{LR: lr, Momentum: momentum}, allocators)

	bar := progressbar.NewOptions(epochs*((dataset.Rows()+batchSize-1)/batchSize),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowIts(),
	)

	for epoch := 0; epoch < epochs; epoch++ {
		perm := data.Permutation(dataset.Rows(), r)
		iteration := 0
		for start := 0; start < len(perm); start += batchSize {
			end := min(start+batchSize, len(perm))
			batch := perm[start:end]

			x, y, err := sampleBatch(dataset, batch, allocators)
			if err != nil {
				return err
			}

			logits, err := model.Forward(x)
			if err != nil {
				return err
			}
			loss, err := ops.CrossEntropyForwardGraph(logits, y, allocators)
			if err != nil {
				return err
			}

			if iteration%outputFreq == 0 {
				klog.Infof("epoch %d, iteration %d - loss: %f", epoch, iteration, loss.Data[0])
			}

			sgd.ZeroGrad()
			if err := autodiff.Backward(loss, allocators); err != nil {
				return err
			}
			if err := sgd.Step(); err != nil {
				return err
			}

			_ = bar.Add(1)
			iteration++
		}
	}
	return nil
}

func countClasses(labels []float64) int {
	max := 0
	for _, l := range labels {
		if c := int(l); c > max {
			max = c
		}
	}
	return max + 1
}

// sampleBatch builds the (batch, cols) feature tensor and (batch, 1)
// label tensor for the given sample indices, mirroring
// csv_dataset_sample_batch.
func sampleBatch(dataset *data.Dataset, indices []int, allocators *tensor.Allocators) (*tensor.Tensor, *tensor.Tensor, error) {
	x, err := allocators.Tensors.Alloc(len(indices), dataset.Cols)
	if err != nil {
		return nil, nil, err
	}
	y, err := allocators.Tensors.AllocNoGrad(len(indices), 1)
	if err != nil {
		return nil, nil, err
	}
	for i, idx := range indices {
		copy(x.Data[i*dataset.Cols:(i+1)*dataset.Cols], dataset.Features[idx])
		y.Data[i] = dataset.Labels[idx]
	}
	return x, y, nil
}
