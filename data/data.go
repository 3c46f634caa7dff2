// Package data re-exports CSV dataset loading and index permutation
// for the training loop.
package data

import (
	"math/rand/v2"

	"github.com/nicolamaritan/cgrad/internal/data"
)

// Dataset holds a CSV table split into labels and features; call
// StandardScale to normalize the features in place.
type Dataset = data.Dataset

// ErrEmptyDataset is returned when a CSV file has no data rows.
var ErrEmptyDataset = data.ErrEmptyDataset

// LoadCSV reads a headerless CSV file where column 0 is the integer
// label and the remaining columns are numeric features.
func LoadCSV(path string) (*Dataset, error) {
	return data.LoadCSV(path)
}

// Permutation returns a random ordering of [0, n).
func Permutation(n int, r *rand.Rand) []int {
	return data.Permutation(n, r)
}
