package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"softmax-forge/internal/model"
)

// Batches walks a split in consecutive mini-batches. The last batch holds
// the remainder when the split size is not a multiple of the batch size.
// Reset starts a new pass; with a non-nil rng every pass visits the
// examples in a fresh random order, otherwise in index order.
type Batches struct {
	split *Split
	size  int
	rng   *rand.Rand
	order []int
	pos   int
}

// NewBatches returns an iterator positioned at the start of a pass.
func NewBatches(split *Split, size int, rng *rand.Rand) *Batches {
	if size <= 0 || size > split.Len() {
		size = split.Len()
	}
	if size == 0 {
		size = 1
	}
	b := &Batches{split: split, size: size, rng: rng}
	b.Reset()
	return b
}

// Len returns the number of batches per pass.
func (b *Batches) Len() int {
	return (b.split.Len() + b.size - 1) / b.size
}

// Reset rewinds to the first batch.
func (b *Batches) Reset() {
	b.pos = 0
	if b.rng == nil {
		b.order = nil
		return
	}
	b.order = b.rng.Perm(b.split.Len())
}

// Next returns the next batch, or false once the pass is exhausted.
func (b *Batches) Next() (model.Batch, bool) {
	n := b.split.Len()
	if b.pos >= n {
		return model.Batch{}, false
	}
	start := b.pos
	end := start + b.size
	if end > n {
		end = n
	}
	b.pos = end

	if b.order == nil {
		d, _ := b.split.X.Dims()
		k, _ := b.split.Y.Dims()
		return model.Batch{
			X:      b.split.X.Slice(0, d, start, end).(*mat.Dense),
			Y:      b.split.Y.Slice(0, k, start, end).(*mat.Dense),
			Labels: b.split.Labels[start:end],
		}, true
	}
	return gather(b.split, b.order[start:end]), true
}

func gather(s *Split, idx []int) model.Batch {
	d, _ := s.X.Dims()
	k, _ := s.Y.Dims()
	x := mat.NewDense(d, len(idx), nil)
	y := mat.NewDense(k, len(idx), nil)
	labels := make([]int, len(idx))
	xcol := make([]float64, d)
	ycol := make([]float64, k)
	for j, i := range idx {
		x.SetCol(j, mat.Col(xcol, i, s.X))
		y.SetCol(j, mat.Col(ycol, i, s.Y))
		labels[j] = s.Labels[i]
	}
	return model.Batch{X: x, Y: y, Labels: labels}
}
