// Package data implements the dataset loading and batch sampling the
// training loop needs: a CSV reader with per-column standard scaling
// and a Fisher-Yates index permutation, replacing csv_dataset.c /
// indexes_permutation.c from the original C library.
package data

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"

	pkgerrors "github.com/pkg/errors"
)

// ErrEmptyDataset is returned when a CSV file has no data rows.
var ErrEmptyDataset = errors.New("data: dataset has no rows")

// Dataset holds a CSV table already split into labels (column 0, as in
// the Kaggle MNIST CSV format csv_dataset_alloc targeted) and features
// (the remaining columns). LoadCSV leaves features as read;
// StandardScale normalizes them in place.
type Dataset struct {
	Labels   []float64   // one label per row
	Features [][]float64 // one row per sample
	Cols     int
}

// Rows reports the number of samples in the dataset.
func (d *Dataset) Rows() int {
	return len(d.Features)
}

// LoadCSV reads a headerless CSV file where column 0 is the integer
// label and the remaining columns are numeric features.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "data: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	ds := &Dataset{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(err, "data: read csv row")
		}

		label, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "data: parse label")
		}
		row := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, pkgerrors.Wrap(err, "data: parse feature")
			}
			row[i] = v
		}

		ds.Labels = append(ds.Labels, label)
		ds.Features = append(ds.Features, row)
		ds.Cols = len(row)
	}

	if ds.Rows() == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}

// StandardScale normalizes every feature column to zero mean and unit
// variance in place, mirroring csv_dataset_standard_scale.
func (d *Dataset) StandardScale() {
	n := float64(d.Rows())
	if n == 0 {
		return
	}
	means := make([]float64, d.Cols)
	for _, row := range d.Features {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	variances := make([]float64, d.Cols)
	for _, row := range d.Features {
		for j, v := range row {
			diff := v - means[j]
			variances[j] += diff * diff
		}
	}
	for j := range variances {
		variances[j] /= n
	}

	for _, row := range d.Features {
		for j := range row {
			std := variances[j]
			if std == 0 {
				row[j] = 0
				continue
			}
			row[j] = (row[j] - means[j]) / math.Sqrt(std)
		}
	}
}

// Permutation returns a random ordering of [0, n), used to shuffle
// sample indices once per epoch (indexes_permutation_init).
func Permutation(n int, r *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	r.Shuffle(n, func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})
	return perm
}
