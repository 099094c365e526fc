// Package dataset fetches, decodes and batches the datasets used by the
// experiments. Samples are kept as flat float32 rows; batching turns them
// into framework tensors.
package dataset

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/born/tensor"
)

// Dataset holds decoded samples ready for batching.
type Dataset struct {
	Name     string
	Features [][]float32  // one flattened row per sample
	Labels   []int32      // class index per sample
	Shape    tensor.Shape // per-sample shape, e.g. {1, 28, 28} or {4}
	Classes  []string
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Features) }

// NumClasses returns the number of target classes.
func (d *Dataset) NumClasses() int { return len(d.Classes) }

// FeatureDim returns the flattened feature length of one sample.
func (d *Dataset) FeatureDim() int {
	n := 1
	for _, dim := range d.Shape {
		n *= dim
	}
	return n
}

func (d *Dataset) validate() error {
	if len(d.Features) == 0 {
		return fmt.Errorf("dataset %s: no samples", d.Name)
	}
	if len(d.Features) != len(d.Labels) {
		return fmt.Errorf("dataset %s: %d samples but %d labels", d.Name, len(d.Features), len(d.Labels))
	}
	for i, l := range d.Labels {
		if int(l) < 0 || int(l) >= d.NumClasses() {
			return fmt.Errorf("dataset %s: label %d out of range at sample %d", d.Name, l, i)
		}
	}
	return nil
}

// Split shuffles the dataset with the given seed and splits off the last
// valFraction of it as a validation set.
func (d *Dataset) Split(valFraction float64, seed int64) (train, val *Dataset, err error) {
	if valFraction <= 0 || valFraction >= 1 {
		return nil, nil, fmt.Errorf("val fraction must be in (0, 1), got %g", valFraction)
	}
	n := d.Len()
	numVal := int(float64(n) * valFraction)
	if numVal == 0 || numVal == n {
		return nil, nil, fmt.Errorf("dataset %s: %d samples cannot be split with fraction %g", d.Name, n, valFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	pick := func(idx []int) *Dataset {
		sub := &Dataset{Name: d.Name, Shape: d.Shape, Classes: d.Classes}
		sub.Features = make([][]float32, len(idx))
		sub.Labels = make([]int32, len(idx))
		for i, j := range idx {
			sub.Features[i] = d.Features[j]
			sub.Labels[i] = d.Labels[j]
		}
		return sub
	}

	return pick(perm[:n-numVal]), pick(perm[n-numVal:]), nil
}

// Batch is one mini-batch as framework tensors.
type Batch[B tensor.Backend] struct {
	Features *tensor.Tensor[float32, B] // [size, featureDim]
	Labels   *tensor.Tensor[int32, B]   // [size]
	Size     int
}

// Batches splits the dataset into mini-batches of framework tensors.
//
// The last batch may be smaller than batchSize. With shuffle set, sample
// order is permuted deterministically from seed.
func Batches[B tensor.Backend](d *Dataset, batchSize int, shuffle bool, seed int64, backend B) ([]*Batch[B], error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", batchSize)
	}

	n := d.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if shuffle {
		rand.New(rand.NewSource(seed)).Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	dim := d.FeatureDim()
	batches := make([]*Batch[B], 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		size := end - start

		feat := make([]float32, 0, size*dim)
		labels := make([]int32, 0, size)
		for _, j := range indices[start:end] {
			if len(d.Features[j]) != dim {
				return nil, fmt.Errorf("dataset %s: sample %d has %d features, want %d", d.Name, j, len(d.Features[j]), dim)
			}
			feat = append(feat, d.Features[j]...)
			labels = append(labels, d.Labels[j])
		}

		ft, err := tensor.FromSlice(feat, tensor.Shape{size, dim}, backend)
		if err != nil {
			return nil, fmt.Errorf("build feature tensor: %w", err)
		}
		lt, err := tensor.FromSlice(labels, tensor.Shape{size}, backend)
		if err != nil {
			return nil, fmt.Errorf("build label tensor: %w", err)
		}
		batches = append(batches, &Batch[B]{Features: ft, Labels: lt, Size: size})
	}

	return batches, nil
}
