package model

import "gonum.org/v1/gonum/mat"

// Batch represents a minibatch stored column-wise: X is D×n, Y is the K×n
// one-hot encoding of Labels.
type Batch struct {
	X      *mat.Dense
	Y      *mat.Dense
	Labels []int
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	if b.X == nil {
		return 0
	}
	_, n := b.X.Dims()
	return n
}

// Options tunes the forward pass.
type Options struct {
	// StableSoftmax subtracts each column's maximum score before
	// exponentiating. Off by default, which overflows to NaN for scores
	// above roughly 709.
	StableSoftmax bool
}

// Model is the training surface the loop drives.
type Model interface {
	TrainStep(batch Batch, eta, lambda float64) float64
	Cost(X, Y mat.Matrix, lambda float64) float64
	Accuracy(X mat.Matrix, labels []int) float64
}
